package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the single refresh session of a user on one platform.
// TokenHash is the SHA-256 hex of the raw token; nil after logout.
type RefreshToken struct {
	UserID    uuid.UUID `gorm:"size:36;primaryKey" json:"user_id"`
	Platform  string    `gorm:"size:20;primaryKey" json:"platform"`
	TokenHash *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
