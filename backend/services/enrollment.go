package services

import (
	"errors"

	"project/backend/models"
	"project/backend/store"
)

// ErrNotEnrolled is informational: unenrolling without an enrollment row is
// not a failure in the surrounding application.
var ErrNotEnrolled = errors.New("not enrolled")

// EnrollmentService gates certification-level progress. Enrollment is row
// presence: the is_active flag on the row is stored but never consulted.
type EnrollmentService struct {
	Hierarchy   store.Hierarchy
	Enrollments store.Enrollments
}

func NewEnrollmentService(hierarchy store.Hierarchy, enrollments store.Enrollments) *EnrollmentService {
	return &EnrollmentService{Hierarchy: hierarchy, Enrollments: enrollments}
}

func (s *EnrollmentService) IsEnrolled(userID, certificationID uint) (bool, error) {
	return s.Enrollments.Exists(userID, certificationID)
}

// Enroll registers the user into the certification. A duplicate enrollment
// surfaces store.ErrAlreadyEnrolled, which callers treat as a no-op.
func (s *EnrollmentService) Enroll(userID, certificationID uint) (models.CertificationEnrollment, error) {
	if _, err := s.Hierarchy.CertificationByID(certificationID); err != nil {
		return models.CertificationEnrollment{}, err
	}
	return s.Enrollments.Create(userID, certificationID)
}

// Unenroll removes the enrollment row, and with it the user's
// certification-level progress and certificate eligibility. Missing row is
// reported as ErrNotEnrolled but carries no side effect.
func (s *EnrollmentService) Unenroll(userID, certificationID uint) error {
	removed, err := s.Enrollments.Delete(userID, certificationID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotEnrolled
	}
	return nil
}

func (s *EnrollmentService) ListByUser(userID uint) ([]models.CertificationEnrollment, error) {
	return s.Enrollments.ListByUser(userID)
}
