package middleware

import (
	"github.com/gasspot/gasspot-backend/internal/requestctx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestContext copies the request id set by the requestid middleware into
// the user context so services can log it. It must run after requestid.New.
func RequestContext() fiber.Handler {
	key := requestid.ConfigDefault.ContextKey
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(key).(string); ok && id != "" {
			c.SetUserContext(requestctx.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}
