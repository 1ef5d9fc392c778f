package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Social providers recorded in User.LoginMethod. A nil LoginMethod means the
// account signed up with email and password.
const (
	LoginMethodKakao  = "kakao"
	LoginMethodNaver  = "naver"
	LoginMethodGoogle = "google"
	LoginMethodApple  = "apple"
)

// User is an account. Password holds a bcrypt hash and is never serialized.
type User struct {
	ID                 uuid.UUID `gorm:"size:36;primaryKey" json:"id"`
	Email              string    `gorm:"not null;size:64;uniqueIndex" json:"email"`
	Password           string    `gorm:"not null;size:64" json:"-"`
	Nickname           string    `gorm:"not null;size:32;uniqueIndex" json:"nickname"`
	ProfilePath        *string   `gorm:"size:255" json:"profile_path"`
	AgreeWithMarketing bool      `gorm:"not null" json:"agree_with_marketing"`
	LoginMethod        *string   `gorm:"size:20" json:"login_method"`

	// Deprecated: refresh tokens live in refresh_tokens, one row per platform.
	// The column is kept so existing schemas migrate cleanly.
	RefreshToken *string `gorm:"size:512" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsSocial reports whether the account was created through a social provider.
func (u *User) IsSocial() bool {
	return u.LoginMethod != nil && *u.LoginMethod != ""
}

// IsKnownLoginMethod reports whether m names a supported social provider.
func IsKnownLoginMethod(m string) bool {
	switch m {
	case LoginMethodKakao, LoginMethodNaver, LoginMethodGoogle, LoginMethodApple:
		return true
	}
	return false
}
