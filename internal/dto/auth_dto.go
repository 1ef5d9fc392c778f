package dto

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}
	return nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return fmt.Errorf("%w: refresh_token is required", ErrInvalidRequest)
	}
	return nil
}

type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       uuid.UUID `json:"user_id"`
	ProfilePath  *string   `json:"profile_path"`
	Nickname     string    `json:"nickname"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis"`
}
