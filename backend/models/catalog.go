package models

import "gorm.io/gorm"

// Certification types
const (
	CertificationProfessional   = "professional"
	CertificationSpecialization = "specialization"
)

// Module types
const (
	ModuleText        = "text"
	ModulePicture     = "picture"
	ModuleVideo       = "video"
	ModuleTextPicture = "text_picture"
)

type Certification struct {
	gorm.Model
	Title             string `gorm:"not null"`
	Description       string
	CertificationType string `gorm:"default:professional"` // professional, specialization
	ThumbnailURL      string
	CreatedBy         uint
	IsActive          bool     `gorm:"default:true"`
	Courses           []Course `gorm:"constraint:OnDelete:CASCADE;"`
}

// Course belongs to at most one certification; a nil CertificationID means
// the course is standalone.
type Course struct {
	gorm.Model
	CertificationID *uint `gorm:"index"`
	Title           string `gorm:"not null"`
	Description     string
	ThumbnailURL    string
	CreatedBy       uint
	SequenceOrder   int      `gorm:"default:0"`
	IsActive        bool     `gorm:"default:true"`
	Modules         []Module `gorm:"constraint:OnDelete:CASCADE;"`
}

type Module struct {
	gorm.Model
	CourseID      uint   `gorm:"index;not null"`
	Title         string `gorm:"not null"`
	ModuleType    string `gorm:"not null"` // text, picture, video, text_picture
	SequenceOrder int    `gorm:"default:0"`
	TextContent   string `gorm:"type:text"`
	PictureURL    string
	VideoURL      string
	VideoDuration int  `gorm:"default:0"` // seconds, 0 = unknown
	IsActive      bool `gorm:"default:true"`
}

// IsVideo reports whether completion is driven by watch time rather than an
// explicit acknowledgment.
func (m *Module) IsVideo() bool {
	return m.ModuleType == ModuleVideo
}

// ValidModuleType reports whether t is one of the supported content types.
func ValidModuleType(t string) bool {
	switch t {
	case ModuleText, ModulePicture, ModuleVideo, ModuleTextPicture:
		return true
	}
	return false
}
