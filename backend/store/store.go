package store

import (
	"errors"
	"time"

	"project/backend/models"
)

// Store-level errors. Controllers map these to HTTP statuses.
var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
)

// Hierarchy is the read-only view of the certification -> course -> module
// content tree. Lookups return active records only; percentages are always
// recomputed against the current active sets, so hierarchy edits are
// reflected retroactively.
type Hierarchy interface {
	CertificationByID(id uint) (models.Certification, error)
	CourseByID(id uint) (models.Course, error)
	ModuleByID(id uint) (models.Module, error)
	ActiveCertifications() ([]models.Certification, error)
	ActiveCourses(certificationID uint) ([]models.Course, error)
	ActiveModules(courseID uint) ([]models.Module, error)
}

// ProgressLedger owns the mutable per-(user, module) state.
type ProgressLedger interface {
	// GetOrCreate upserts the ledger row. Concurrent callers for the same
	// pair observe a single row; the (user_id, module_id) unique index is
	// the backstop.
	GetOrCreate(userID, moduleID uint) (models.ModuleProgress, error)
	Get(userID, moduleID uint) (models.ModuleProgress, error)
	// SetWatchTime stores the latest reported watch time (last write wins)
	// and touches last_accessed.
	SetWatchTime(p *models.ModuleProgress, seconds int) error
	// Complete flips is_completed once. Returns false when another writer
	// already completed the row; completed_at keeps the first writer's stamp.
	Complete(p *models.ModuleProgress, at time.Time) (bool, error)
	Touch(p *models.ModuleProgress) error
	CountCompleted(userID uint, moduleIDs []uint) (int64, error)
	RecentForUser(userID uint, limit int) ([]models.ModuleProgress, error)
}

// Enrollments tracks (user, certification) registrations.
type Enrollments interface {
	Exists(userID, certificationID uint) (bool, error)
	Create(userID, certificationID uint) (models.CertificationEnrollment, error)
	// Delete removes the row if present and reports whether it did.
	Delete(userID, certificationID uint) (bool, error)
	ListByUser(userID uint) ([]models.CertificationEnrollment, error)
}

// Certificates materializes certificate rows at most once per pair. Create
// calls report whether this call performed the insert so a concurrent
// duplicate submission cannot also claim the fresh issue.
type Certificates interface {
	CourseCertificate(userID, courseID uint) (models.CourseCertificate, error)
	CreateCourseCertificate(cert *models.CourseCertificate) (bool, error)
	CertificationCertificate(userID, certificationID uint) (models.CertificationCertificate, error)
	CreateCertificationCertificate(cert *models.CertificationCertificate) (bool, error)
	ListCourseCertificates(userID uint) ([]models.CourseCertificate, error)
	ListCertificationCertificates(userID uint) ([]models.CertificationCertificate, error)
}
