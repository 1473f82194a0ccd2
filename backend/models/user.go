package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	RoleLearner    = "learner"
	RoleInstructor = "instructor"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	MatricNumber *string `gorm:"unique"`
	Bio          string
	Role         string `gorm:"default:learner"` // learner, instructor
}

// FullName returns "First Last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsInstructor reports whether the user can create and manage content.
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

type LoginHistory struct {
	gorm.Model
	UserID    uint
	LoginTime time.Time
}
