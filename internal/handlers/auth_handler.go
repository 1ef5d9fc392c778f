package handlers

import (
	"context"

	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/gasspot/gasspot-backend/internal/requestctx"
	"github.com/gasspot/gasspot-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthAPI is the part of services.AuthService the handlers use.
type AuthAPI interface {
	Login(ctx context.Context, userAgent, email, password string) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, userAgent, refreshToken string) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, userAgent string, userID uuid.UUID) error
}

var _ AuthAPI = (*services.AuthService)(nil)

type AuthHandler struct {
	authService AuthAPI
}

func NewAuthHandler(authService AuthAPI) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), c.Get(fiber.HeaderUserAgent), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	resp, err := h.authService.Refresh(c.UserContext(), c.Get(fiber.HeaderUserAgent), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Logout clears the refresh token of the caller's current platform.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := requestctx.GetUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	if err := h.authService.Logout(c.UserContext(), c.Get(fiber.HeaderUserAgent), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
