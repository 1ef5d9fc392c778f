package handlers

import (
	"context"

	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/gasspot/gasspot-backend/internal/requestctx"
	"github.com/gasspot/gasspot-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserAPI is the part of services.UserService the handlers use.
type UserAPI interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, id uuid.UUID, req *dto.ChangePasswordRequest) error
	SendSignupCode(ctx context.Context, email string) error
	ConfirmSignupCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	DeleteAccount(ctx context.Context, id uuid.UUID, password string) error
}

var _ UserAPI = (*services.UserService)(nil)

type UserHandler struct {
	userService UserAPI
}

func NewUserHandler(userService UserAPI) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.userService.Signup(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := requestctx.GetUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	resp, err := h.userService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	userID, err := requestctx.GetUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.userService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := requestctx.GetUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.userService.ChangePassword(c.UserContext(), userID, &req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete removes the caller's account. Social accounts may send no body.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	userID, err := requestctx.GetUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.DeleteUserRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	if err := h.userService.DeleteAccount(c.UserContext(), userID, req.Password); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) SendSignupCode(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.userService.SendSignupCode(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) ConfirmSignupCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.userService.ConfirmSignupCode(c.UserContext(), req.Email, req.Code); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) FindPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.userService.SendPasswordResetCode(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.userService.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
