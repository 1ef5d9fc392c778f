package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForSession returns a GORM scope that selects the refresh-token row of one
// user on one platform.
func ForSession(userID uuid.UUID, platform string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND platform = ?", userID, platform)
	}
}

// ForUser returns a GORM scope that filters rows owned by userID.
func ForUser(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}
