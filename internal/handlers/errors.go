package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/gasspot/gasspot-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_AUTH"},
	{services.ErrInvalidToken, fiber.StatusUnauthorized, "INVALID_TOKEN"},
	{services.ErrExpiredRefreshToken, fiber.StatusUnauthorized, "EXPIRED_REFRESH_TOKEN"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "CANNOT_FIND_USER"},
	{services.ErrEmailTaken, fiber.StatusConflict, "EXIST_EMAIL"},
	{services.ErrNicknameTaken, fiber.StatusConflict, "EXIST_NICKNAME"},
	{services.ErrSocialUserUpdate, fiber.StatusForbidden, "CANNOT_UPDATE_SOCIAL_USER"},
	{services.ErrInvalidVerificationCode, fiber.StatusBadRequest, "INVALID_VERIFICATION_CODE"},
	{services.ErrEmailNotVerified, fiber.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{dto.ErrInvalidRequest, fiber.StatusBadRequest, "INVALID_REQUEST"},
}

// ErrorHandler is the Fiber error handler. Known errors become their status
// and code; anything else is logged, reported to Sentry and hidden behind a 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		for _, m := range errorTable {
			if errors.Is(err, m.err) {
				return c.Status(m.status).JSON(dto.ErrorResponse{
					Error: true, Code: m.code, Message: err.Error(),
				})
			}
		}

		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{
				Error: true, Code: "HTTP_" + statusCode(fe.Code), Message: fe.Message,
			})
		}

		logger.ErrorContext(c.UserContext(), "unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Code: "INTERNAL", Message: "Internal server error",
		})
	}
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	case fiber.StatusUnprocessableEntity, fiber.StatusBadRequest:
		return "BAD_REQUEST"
	default:
		return "CLIENT_ERROR"
	}
}

// parseBody decodes the JSON body into out, reporting malformed input as
// dto.ErrInvalidRequest.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: invalid request body", dto.ErrInvalidRequest)
	}
	return nil
}
