package middleware

import (
	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/gasspot/gasspot-backend/internal/requestctx"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTProtected accepts only unexpired HS256 access tokens and records the
// caller through requestctx.
func JWTProtected(issuer *auth.TokenIssuer) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: issuer.Secret()},
		Claims:     &auth.Claims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.Kind != auth.KindAccess || claims.ExpiresAt == nil {
				return unauthorized(c)
			}
			requestctx.SetUser(c, claims.UserID, claims.Platform)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Code:    "UNAUTHORIZED",
		Message: "Unauthorized: invalid or expired token",
	})
}
