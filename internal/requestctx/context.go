// Package requestctx carries per-request identity between middleware,
// handlers and the logger.
package requestctx

import (
	"context"
	"errors"

	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var ErrNoUser = errors.New("no authenticated user in context")

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
	platformKey
)

const (
	localsUserID   = "user_id"
	localsPlatform = "platform"
)

// SetUser records the authenticated caller on both the Fiber locals and the
// request's user context.
func SetUser(c *fiber.Ctx, userID uuid.UUID, platform auth.Platform) {
	c.Locals(localsUserID, userID)
	c.Locals(localsPlatform, platform)

	c.SetUserContext(WithUser(c.UserContext(), userID, platform))
}

// GetUserID returns the caller set by the auth middleware.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(localsUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}

// GetPlatform returns the platform claim of the caller's access token.
func GetPlatform(c *fiber.Ctx) auth.Platform {
	if p, ok := c.Locals(localsPlatform).(auth.Platform); ok {
		return p
	}
	return auth.PlatformUnknown
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithUser(ctx context.Context, userID uuid.UUID, platform auth.Platform) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, platformKey, platform)
}

func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func Platform(ctx context.Context) (auth.Platform, bool) {
	p, ok := ctx.Value(platformKey).(auth.Platform)
	return p, ok
}
