package models

import (
	"time"

	"gorm.io/gorm"
)

// CertificationEnrollment registers a user into a certification. At most one
// row per (user, certification). IsActive is stored but progress gating is by
// row presence only.
type CertificationEnrollment struct {
	gorm.Model
	UserID          uint `gorm:"uniqueIndex:idx_user_certification;not null"`
	CertificationID uint `gorm:"uniqueIndex:idx_user_certification;not null"`
	EnrolledAt      time.Time
	IsActive        bool `gorm:"default:true"`
}

// CourseCertificate is issued at most once per (user, course).
type CourseCertificate struct {
	gorm.Model
	UserID        uint   `gorm:"uniqueIndex:idx_user_course_cert;not null"`
	CourseID      uint   `gorm:"uniqueIndex:idx_user_course_cert;not null"`
	CertificateID string `gorm:"unique;not null"` // CERT-<12 uppercase hex>
	IssuedAt      time.Time
}

// CertificationCertificate is issued at most once per (user, certification)
// and additionally requires an enrollment.
type CertificationCertificate struct {
	gorm.Model
	UserID          uint   `gorm:"uniqueIndex:idx_user_cert_cert;not null"`
	CertificationID uint   `gorm:"uniqueIndex:idx_user_cert_cert;not null"`
	CertificateID   string `gorm:"unique;not null"` // PROF-<12 uppercase hex>
	IssuedAt        time.Time
}
