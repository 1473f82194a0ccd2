package store

import (
	"errors"
	"strings"
	"time"

	"project/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCertificateIDConflict signals that the generated certificate identifier
// collided with an existing one; the caller regenerates and retries.
var ErrCertificateIDConflict = errors.New("certificate id already taken")

// GormStore implements Hierarchy, ProgressLedger, Enrollments and
// Certificates on a single GORM handle.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "duplicate") || strings.Contains(low, "unique")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Hierarchy ---

func (s *GormStore) CertificationByID(id uint) (models.Certification, error) {
	var cert models.Certification
	if err := s.DB.Where("id = ? AND is_active = ?", id, true).First(&cert).Error; err != nil {
		return cert, notFound(err)
	}
	return cert, nil
}

func (s *GormStore) CourseByID(id uint) (models.Course, error) {
	var course models.Course
	if err := s.DB.Where("id = ? AND is_active = ?", id, true).First(&course).Error; err != nil {
		return course, notFound(err)
	}
	return course, nil
}

func (s *GormStore) ModuleByID(id uint) (models.Module, error) {
	var module models.Module
	if err := s.DB.Where("id = ? AND is_active = ?", id, true).First(&module).Error; err != nil {
		return module, notFound(err)
	}
	return module, nil
}

func (s *GormStore) ActiveCertifications() ([]models.Certification, error) {
	var certs []models.Certification
	err := s.DB.Where("is_active = ?", true).Order("created_at desc").Find(&certs).Error
	return certs, err
}

func (s *GormStore) ActiveCourses(certificationID uint) ([]models.Course, error) {
	var courses []models.Course
	err := s.DB.Where("certification_id = ? AND is_active = ?", certificationID, true).
		Order("sequence_order asc, title asc").Find(&courses).Error
	return courses, err
}

func (s *GormStore) ActiveModules(courseID uint) ([]models.Module, error) {
	var modules []models.Module
	err := s.DB.Where("course_id = ? AND is_active = ?", courseID, true).
		Order("sequence_order asc, title asc").Find(&modules).Error
	return modules, err
}

// --- ProgressLedger ---

func (s *GormStore) GetOrCreate(userID, moduleID uint) (models.ModuleProgress, error) {
	now := time.Now()
	row := models.ModuleProgress{
		UserID:       userID,
		ModuleID:     moduleID,
		StartedAt:    now,
		LastAccessed: now,
	}
	// DoNothing keeps the existing row when a concurrent caller won the
	// insert; the reload below returns whichever row is in place.
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil && !isDuplicateErr(err) {
		return row, err
	}
	return s.Get(userID, moduleID)
}

func (s *GormStore) Get(userID, moduleID uint) (models.ModuleProgress, error) {
	var progress models.ModuleProgress
	if err := s.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&progress).Error; err != nil {
		return progress, notFound(err)
	}
	return progress, nil
}

func (s *GormStore) SetWatchTime(p *models.ModuleProgress, seconds int) error {
	now := time.Now()
	err := s.DB.Model(p).Updates(map[string]interface{}{
		"video_watch_time": seconds,
		"last_accessed":    now,
	}).Error
	if err != nil {
		return err
	}
	p.VideoWatchTime = seconds
	p.LastAccessed = now
	return nil
}

func (s *GormStore) Complete(p *models.ModuleProgress, at time.Time) (bool, error) {
	// Conditional update: only the first writer flips the flag and stamps
	// completed_at.
	res := s.DB.Model(&models.ModuleProgress{}).
		Where("id = ? AND is_completed = ?", p.ID, false).
		Updates(map[string]interface{}{
			"is_completed":  true,
			"completed_at":  at,
			"last_accessed": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	reloaded, err := s.Get(p.UserID, p.ModuleID)
	if err != nil {
		return false, err
	}
	*p = reloaded
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Touch(p *models.ModuleProgress) error {
	now := time.Now()
	if err := s.DB.Model(p).Update("last_accessed", now).Error; err != nil {
		return err
	}
	p.LastAccessed = now
	return nil
}

func (s *GormStore) CountCompleted(userID uint, moduleIDs []uint) (int64, error) {
	if len(moduleIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := s.DB.Model(&models.ModuleProgress{}).
		Where("user_id = ? AND module_id IN ? AND is_completed = ?", userID, moduleIDs, true).
		Count(&count).Error
	return count, err
}

func (s *GormStore) RecentForUser(userID uint, limit int) ([]models.ModuleProgress, error) {
	var rows []models.ModuleProgress
	err := s.DB.Where("user_id = ?", userID).
		Order("last_accessed desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// --- Enrollments ---

func (s *GormStore) Exists(userID, certificationID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.CertificationEnrollment{}).
		Where("user_id = ? AND certification_id = ?", userID, certificationID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) Create(userID, certificationID uint) (models.CertificationEnrollment, error) {
	enrollment := models.CertificationEnrollment{
		UserID:          userID,
		CertificationID: certificationID,
		EnrolledAt:      time.Now(),
		IsActive:        true,
	}
	if err := s.DB.Create(&enrollment).Error; err != nil {
		if isDuplicateErr(err) {
			return enrollment, ErrAlreadyEnrolled
		}
		return enrollment, err
	}
	return enrollment, nil
}

func (s *GormStore) Delete(userID, certificationID uint) (bool, error) {
	res := s.DB.Unscoped().
		Where("user_id = ? AND certification_id = ?", userID, certificationID).
		Delete(&models.CertificationEnrollment{})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) ListByUser(userID uint) ([]models.CertificationEnrollment, error) {
	var enrollments []models.CertificationEnrollment
	err := s.DB.Where("user_id = ?", userID).Order("enrolled_at desc").Find(&enrollments).Error
	return enrollments, err
}

// --- Certificates ---

func (s *GormStore) CourseCertificate(userID, courseID uint) (models.CourseCertificate, error) {
	var cert models.CourseCertificate
	if err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error; err != nil {
		return cert, notFound(err)
	}
	return cert, nil
}

// CreateCourseCertificate inserts cert and reports whether this call
// performed the insert. When the (user, course) pair already holds a
// certificate, cert is replaced with the stored record.
func (s *GormStore) CreateCourseCertificate(cert *models.CourseCertificate) (bool, error) {
	if err := s.DB.Create(cert).Error; err != nil {
		if !isDuplicateErr(err) {
			return false, err
		}
		existing, lookupErr := s.CourseCertificate(cert.UserID, cert.CourseID)
		if lookupErr == nil {
			*cert = existing
			return false, nil
		}
		if errors.Is(lookupErr, ErrNotFound) {
			// Pair is free, so the generated identifier collided.
			return false, ErrCertificateIDConflict
		}
		return false, lookupErr
	}
	return true, nil
}

func (s *GormStore) CertificationCertificate(userID, certificationID uint) (models.CertificationCertificate, error) {
	var cert models.CertificationCertificate
	if err := s.DB.Where("user_id = ? AND certification_id = ?", userID, certificationID).First(&cert).Error; err != nil {
		return cert, notFound(err)
	}
	return cert, nil
}

func (s *GormStore) CreateCertificationCertificate(cert *models.CertificationCertificate) (bool, error) {
	if err := s.DB.Create(cert).Error; err != nil {
		if !isDuplicateErr(err) {
			return false, err
		}
		existing, lookupErr := s.CertificationCertificate(cert.UserID, cert.CertificationID)
		if lookupErr == nil {
			*cert = existing
			return false, nil
		}
		if errors.Is(lookupErr, ErrNotFound) {
			return false, ErrCertificateIDConflict
		}
		return false, lookupErr
	}
	return true, nil
}

func (s *GormStore) ListCourseCertificates(userID uint) ([]models.CourseCertificate, error) {
	var certs []models.CourseCertificate
	err := s.DB.Where("user_id = ?", userID).Order("issued_at desc").Find(&certs).Error
	return certs, err
}

func (s *GormStore) ListCertificationCertificates(userID uint) ([]models.CertificationCertificate, error) {
	var certs []models.CertificationCertificate
	err := s.DB.Where("user_id = ?", userID).Order("issued_at desc").Find(&certs).Error
	return certs, err
}
