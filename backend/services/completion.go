package services

import (
	"errors"
	"time"

	"project/backend/models"
	"project/backend/store"
)

var (
	// ErrInvalidModuleType is returned when a completion operation is
	// attempted on the wrong module kind (mark-complete on a video, watch
	// time on a text module).
	ErrInvalidModuleType = errors.New("invalid module type")
)

// VideoCompletionThreshold is the fraction of a video a user must watch
// before the module auto-completes. Non-video modules require an explicit
// acknowledgment, so their threshold is 1.0.
const VideoCompletionThreshold = 0.85

// CourseCompletionPercent is the course-level slack: a course counts as
// complete at 90% of its active modules, not 100%.
const CourseCompletionPercent = 90.0

// Threshold returns the completion threshold for a module.
func Threshold(m models.Module) float64 {
	if m.IsVideo() {
		return VideoCompletionThreshold
	}
	return 1.0
}

// ModulePercentage derives a module's progress percentage from its ledger
// row. A completed module is 100 regardless of watch time; an incomplete
// video with a known duration is proportional; everything else is 0.
func ModulePercentage(p models.ModuleProgress, m models.Module) float64 {
	if p.IsCompleted {
		return 100
	}
	if m.IsVideo() && m.VideoDuration > 0 {
		pct := float64(p.VideoWatchTime) / float64(m.VideoDuration) * 100
		if pct > 100 {
			return 100
		}
		return pct
	}
	return 0
}

// ProgressView is what the web layer returns after a progress write.
type ProgressView struct {
	IsCompleted        bool    `json:"is_completed"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// CompletionService turns raw module interaction events into hierarchical
// completion state. All percentages are recomputed from the ledger and the
// current active hierarchy on every call; nothing derived is stored.
type CompletionService struct {
	Hierarchy   store.Hierarchy
	Ledger      store.ProgressLedger
	Enrollments store.Enrollments
}

func NewCompletionService(hierarchy store.Hierarchy, ledger store.ProgressLedger, enrollments store.Enrollments) *CompletionService {
	return &CompletionService{Hierarchy: hierarchy, Ledger: ledger, Enrollments: enrollments}
}

// RecordVideoProgress stores the latest reported watch time for a video
// module and completes the module once the threshold is crossed. Watch time
// is last-write-wins: decreasing or out-of-order reports are accepted as-is,
// but a completed module never reverts. A zero video duration means the
// threshold is not computable, so this path can never complete the module.
func (s *CompletionService) RecordVideoProgress(userID, moduleID uint, watchSeconds int) (ProgressView, models.Module, error) {
	module, err := s.Hierarchy.ModuleByID(moduleID)
	if err != nil {
		return ProgressView{}, module, err
	}
	if !module.IsVideo() {
		return ProgressView{}, module, ErrInvalidModuleType
	}

	progress, err := s.Ledger.GetOrCreate(userID, moduleID)
	if err != nil {
		return ProgressView{}, module, err
	}
	if err := s.Ledger.SetWatchTime(&progress, watchSeconds); err != nil {
		return ProgressView{}, module, err
	}

	if module.VideoDuration > 0 && !progress.IsCompleted {
		if float64(watchSeconds) >= float64(module.VideoDuration)*Threshold(module) {
			if _, err := s.Ledger.Complete(&progress, time.Now()); err != nil {
				return ProgressView{}, module, err
			}
		}
	}

	return ProgressView{
		IsCompleted:        progress.IsCompleted,
		ProgressPercentage: ModulePercentage(progress, module),
	}, module, nil
}

// MarkComplete completes a text/picture module. Video modules complete only
// through watch time. Idempotent: repeating the call on a completed module
// returns the current state unchanged.
func (s *CompletionService) MarkComplete(userID, moduleID uint) (ProgressView, models.Module, error) {
	module, err := s.Hierarchy.ModuleByID(moduleID)
	if err != nil {
		return ProgressView{}, module, err
	}
	if module.IsVideo() {
		return ProgressView{}, module, ErrInvalidModuleType
	}

	progress, err := s.Ledger.GetOrCreate(userID, moduleID)
	if err != nil {
		return ProgressView{}, module, err
	}
	if !progress.IsCompleted {
		if _, err := s.Ledger.Complete(&progress, time.Now()); err != nil {
			return ProgressView{}, module, err
		}
	}

	return ProgressView{
		IsCompleted:        progress.IsCompleted,
		ProgressPercentage: ModulePercentage(progress, module),
	}, module, nil
}

// TouchModule upserts the ledger row for a module view without changing
// completion state.
func (s *CompletionService) TouchModule(userID, moduleID uint) (models.ModuleProgress, error) {
	progress, err := s.Ledger.GetOrCreate(userID, moduleID)
	if err != nil {
		return progress, err
	}
	if err := s.Ledger.Touch(&progress); err != nil {
		return progress, err
	}
	return progress, nil
}

// CourseProgress returns the user's percentage over the course's active
// modules, counting binary module completion only. An empty active set is 0,
// never a division by zero.
func (s *CompletionService) CourseProgress(userID uint, course models.Course) (float64, error) {
	modules, err := s.Hierarchy.ActiveModules(course.ID)
	if err != nil {
		return 0, err
	}
	if len(modules) == 0 {
		return 0, nil
	}
	ids := make([]uint, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	completed, err := s.Ledger.CountCompleted(userID, ids)
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(len(modules)) * 100, nil
}

// CourseIsComplete applies the 90% slack: a 10-module course is complete
// with 9 modules done.
func (s *CompletionService) CourseIsComplete(userID uint, course models.Course) (bool, error) {
	progress, err := s.CourseProgress(userID, course)
	if err != nil {
		return false, err
	}
	return progress >= CourseCompletionPercent, nil
}

// CertificationProgress returns the percentage of active courses the user
// has completed. Certification progress is only meaningful for enrolled
// users; without an enrollment row it is 0 regardless of module state.
func (s *CompletionService) CertificationProgress(userID uint, certification models.Certification) (float64, error) {
	enrolled, err := s.Enrollments.Exists(userID, certification.ID)
	if err != nil {
		return 0, err
	}
	if !enrolled {
		return 0, nil
	}

	courses, err := s.Hierarchy.ActiveCourses(certification.ID)
	if err != nil {
		return 0, err
	}
	if len(courses) == 0 {
		return 0, nil
	}

	completed := 0
	for _, course := range courses {
		done, err := s.CourseIsComplete(userID, course)
		if err != nil {
			return 0, err
		}
		if done {
			completed++
		}
	}
	return float64(completed) / float64(len(courses)) * 100, nil
}

// CertificationIsComplete requires enrollment and every active course to be
// individually complete. An empty active course set is false, not a vacuous
// true: an empty certification never awards a certificate.
func (s *CompletionService) CertificationIsComplete(userID uint, certification models.Certification) (bool, error) {
	enrolled, err := s.Enrollments.Exists(userID, certification.ID)
	if err != nil {
		return false, err
	}
	if !enrolled {
		return false, nil
	}

	courses, err := s.Hierarchy.ActiveCourses(certification.ID)
	if err != nil {
		return false, err
	}
	if len(courses) == 0 {
		return false, nil
	}

	for _, course := range courses {
		done, err := s.CourseIsComplete(userID, course)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	return true, nil
}
