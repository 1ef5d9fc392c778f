package dto

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidRequest marks input that failed validation. Handlers answer 400.
var ErrInvalidRequest = errors.New("invalid request")

const (
	minPasswordLen = 8
	maxPasswordLen = 72
	maxNicknameLen = 32
	maxEmailLen    = 64
)

// normalizeEmail trims and lowercases an address. Emails are stored and
// looked up in this form only.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLen {
		return fmt.Errorf("%w: email must be 1-%d characters", ErrInvalidRequest, maxEmailLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidRequest)
	}
	return nil
}

func validatePassword(field, password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("%w: %s must be %d-%d bytes", ErrInvalidRequest, field, minPasswordLen, maxPasswordLen)
	}
	return nil
}

func validateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n == 0 || n > maxNicknameLen {
		return fmt.Errorf("%w: nickname must be 1-%d characters", ErrInvalidRequest, maxNicknameLen)
	}
	return nil
}

type SignupRequest struct {
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	Nickname           string  `json:"nickname"`
	ProfilePath        *string `json:"profile_path"`
	AgreeWithMarketing bool    `json:"agree_with_marketing"`
	LoginMethod        *string `json:"login_method"`
}

func (r *SignupRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.Nickname = strings.TrimSpace(r.Nickname)
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validateNickname(r.Nickname); err != nil {
		return err
	}
	if r.LoginMethod != nil {
		if !models.IsKnownLoginMethod(*r.LoginMethod) {
			return fmt.Errorf("%w: unknown login_method %q", ErrInvalidRequest, *r.LoginMethod)
		}
		if r.Password == "" {
			return nil
		}
	}
	return validatePassword("password", r.Password)
}

type SignupResponse struct {
	ID uuid.UUID `json:"id"`
}

// UpdateUserRequest changes profile fields; nil fields are left alone.
// Passwords are changed through ChangePasswordRequest.
type UpdateUserRequest struct {
	Email              *string `json:"email"`
	Nickname           *string `json:"nickname"`
	ProfilePath        *string `json:"profile_path"`
	AgreeWithMarketing *bool   `json:"agree_with_marketing"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Email != nil {
		email := normalizeEmail(*r.Email)
		r.Email = &email
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if r.Nickname != nil {
		nickname := strings.TrimSpace(*r.Nickname)
		r.Nickname = &nickname
		if err := validateNickname(nickname); err != nil {
			return err
		}
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return fmt.Errorf("%w: current_password is required", ErrInvalidRequest)
	}
	return validatePassword("new_password", r.NewPassword)
}

type DeleteUserRequest struct {
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

func (r *EmailRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return validateEmail(r.Email)
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r *VerifyCodeRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}
	return nil
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (r *ResetPasswordRequest) Validate() error {
	v := VerifyCodeRequest{Email: r.Email, Code: r.Code}
	if err := v.Validate(); err != nil {
		return err
	}
	r.Email = v.Email
	return validatePassword("new_password", r.NewPassword)
}

type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	Nickname           string    `json:"nickname"`
	ProfilePath        *string   `json:"profile_path"`
	AgreeWithMarketing bool      `json:"agree_with_marketing"`
	LoginMethod        *string   `json:"login_method"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Nickname:           u.Nickname,
		ProfilePath:        u.ProfilePath,
		AgreeWithMarketing: u.AgreeWithMarketing,
		LoginMethod:        u.LoginMethod,
		CreatedAt:          u.CreatedAt,
	}
}
