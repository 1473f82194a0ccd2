package services

import (
	"errors"
	"strings"
	"time"

	"project/backend/models"
	"project/backend/store"

	"github.com/google/uuid"
)

// ErrNotEligible is returned when a certificate is requested before the
// underlying entity is complete. No side effect is performed.
var ErrNotEligible = errors.New("not eligible for certificate")

const (
	CourseCertificatePrefix        = "CERT"
	CertificationCertificatePrefix = "PROF"

	certificateIDRetries = 5
)

// NewCertificateID generates an identifier of the form
// <prefix>-<12 uppercase hex characters>. 48 random bits make collisions
// negligible; the store's unique constraint is the authoritative guard.
func NewCertificateID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:12])
}

// IssuedCertificate is the issuance result. FreshlyIssued is true only for
// the call that performed the insert, so the client can show its one-time
// celebratory signal exactly once even under double submission.
type IssuedCertificate struct {
	CertificateID string    `json:"certificate_id"`
	IssuedAt      time.Time `json:"issued_at"`
	FreshlyIssued bool      `json:"freshly_issued"`
}

// RenderData is the exact field set the external PDF renderer consumes.
type RenderData struct {
	RecipientName string    `json:"recipient_name"`
	Title         string    `json:"title"`
	CourseTitles  []string  `json:"course_titles,omitempty"`
	IssuedAt      time.Time `json:"issued_at"`
	CertificateID string    `json:"certificate_id"`
}

// CertificateService issues certificates at most once per (user, entity)
// pair, the first time completion becomes true.
type CertificateService struct {
	Hierarchy    store.Hierarchy
	Certificates store.Certificates
	Completion   *CompletionService
}

func NewCertificateService(hierarchy store.Hierarchy, certificates store.Certificates, completion *CompletionService) *CertificateService {
	return &CertificateService{Hierarchy: hierarchy, Certificates: certificates, Completion: completion}
}

// IssueCourseCertificate materializes the (user, course) certificate if the
// course is complete. Re-issuing returns the stored record unchanged.
func (s *CertificateService) IssueCourseCertificate(userID, courseID uint) (models.CourseCertificate, bool, error) {
	course, err := s.Hierarchy.CourseByID(courseID)
	if err != nil {
		return models.CourseCertificate{}, false, err
	}
	complete, err := s.Completion.CourseIsComplete(userID, course)
	if err != nil {
		return models.CourseCertificate{}, false, err
	}
	if !complete {
		return models.CourseCertificate{}, false, ErrNotEligible
	}

	for attempt := 0; attempt < certificateIDRetries; attempt++ {
		cert := models.CourseCertificate{
			UserID:        userID,
			CourseID:      courseID,
			CertificateID: NewCertificateID(CourseCertificatePrefix),
			IssuedAt:      time.Now(),
		}
		created, err := s.Certificates.CreateCourseCertificate(&cert)
		if errors.Is(err, store.ErrCertificateIDConflict) {
			continue
		}
		if err != nil {
			return models.CourseCertificate{}, false, err
		}
		return cert, created, nil
	}
	return models.CourseCertificate{}, false, store.ErrCertificateIDConflict
}

// IssueCertificationCertificate is the certification-level variant. The
// completion check already encodes the enrollment requirement.
func (s *CertificateService) IssueCertificationCertificate(userID, certificationID uint) (models.CertificationCertificate, bool, error) {
	certification, err := s.Hierarchy.CertificationByID(certificationID)
	if err != nil {
		return models.CertificationCertificate{}, false, err
	}
	complete, err := s.Completion.CertificationIsComplete(userID, certification)
	if err != nil {
		return models.CertificationCertificate{}, false, err
	}
	if !complete {
		return models.CertificationCertificate{}, false, ErrNotEligible
	}

	for attempt := 0; attempt < certificateIDRetries; attempt++ {
		cert := models.CertificationCertificate{
			UserID:          userID,
			CertificationID: certificationID,
			CertificateID:   NewCertificateID(CertificationCertificatePrefix),
			IssuedAt:        time.Now(),
		}
		created, err := s.Certificates.CreateCertificationCertificate(&cert)
		if errors.Is(err, store.ErrCertificateIDConflict) {
			continue
		}
		if err != nil {
			return models.CertificationCertificate{}, false, err
		}
		return cert, created, nil
	}
	return models.CertificationCertificate{}, false, store.ErrCertificateIDConflict
}

// CourseRenderData assembles the renderer fields for a course certificate.
func (s *CertificateService) CourseRenderData(user models.User, cert models.CourseCertificate) (RenderData, error) {
	course, err := s.Hierarchy.CourseByID(cert.CourseID)
	if err != nil {
		return RenderData{}, err
	}
	return RenderData{
		RecipientName: user.FullName(),
		Title:         course.Title,
		IssuedAt:      cert.IssuedAt,
		CertificateID: cert.CertificateID,
	}, nil
}

// CertificationRenderData additionally carries the ordered active course
// titles listed on the certificate.
func (s *CertificateService) CertificationRenderData(user models.User, cert models.CertificationCertificate) (RenderData, error) {
	certification, err := s.Hierarchy.CertificationByID(cert.CertificationID)
	if err != nil {
		return RenderData{}, err
	}
	courses, err := s.Hierarchy.ActiveCourses(certification.ID)
	if err != nil {
		return RenderData{}, err
	}
	titles := make([]string, len(courses))
	for i, course := range courses {
		titles[i] = course.Title
	}
	return RenderData{
		RecipientName: user.FullName(),
		Title:         certification.Title,
		CourseTitles:  titles,
		IssuedAt:      cert.IssuedAt,
		CertificateID: cert.CertificateID,
	}, nil
}
