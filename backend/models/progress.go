package models

import (
	"time"

	"gorm.io/gorm"
)

// ModuleProgress is the per-(user, module) ledger row. IsCompleted is
// monotonic: once true it is never reset by any operation.
type ModuleProgress struct {
	gorm.Model
	UserID         uint `gorm:"uniqueIndex:idx_user_module;not null"`
	ModuleID       uint `gorm:"uniqueIndex:idx_user_module;not null"`
	IsCompleted    bool `gorm:"default:false"`
	VideoWatchTime int  `gorm:"default:0"` // seconds, last reported value
	StartedAt      time.Time
	LastAccessed   time.Time
	CompletedAt    *time.Time
}
