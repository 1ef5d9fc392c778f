package routes

import (
	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/handlers"
	"github.com/gasspot/gasspot-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func Setup(
	app *fiber.App,
	issuer *auth.TokenIssuer,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")
	protected := middleware.JWTProtected(issuer)

	api.Get("/health", healthHandler.Check)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", protected, authHandler.Logout)

	users := api.Group("/users")
	users.Post("/", userHandler.Signup)
	users.Post("/email-verify", userHandler.SendSignupCode)
	users.Post("/email-verify/confirm", userHandler.ConfirmSignupCode)
	users.Post("/find-password", userHandler.FindPassword)
	users.Post("/reset-password", userHandler.ResetPassword)

	// Protected routes (JWT required) are registered per route so the
	// middleware never runs for the public ones above.
	users.Get("/me", protected, userHandler.Me)
	users.Patch("/", protected, userHandler.Update)
	users.Patch("/password", protected, userHandler.ChangePassword)
	users.Delete("/", protected, userHandler.Delete)
}
