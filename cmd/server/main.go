package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/config"
	"github.com/gasspot/gasspot-backend/internal/database"
	"github.com/gasspot/gasspot-backend/internal/handlers"
	"github.com/gasspot/gasspot-backend/internal/logging"
	"github.com/gasspot/gasspot-backend/internal/mailer"
	"github.com/gasspot/gasspot-backend/internal/middleware"
	"github.com/gasspot/gasspot-backend/internal/repository"
	"github.com/gasspot/gasspot-backend/internal/routes"
	"github.com/gasspot/gasspot-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logger := logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// DB log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(logging.NewGormWriter(db))
	logger = logging.Setup(dbLogHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.StartCleanup(ctx, db, cfg.LogRetentionDays, logger)

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Mail
	var mail mailer.Sender
	switch cfg.MailDriver {
	case "amqp":
		mail = mailer.NewAMQPSender(cfg.AMQPURL, cfg.MailQueue, logger)
	default:
		mail = mailer.NewLogSender(logger)
	}

	// Repositories and services
	users := repository.NewUserRepository(db)
	refreshTokens := repository.NewRefreshTokenRepository(db)
	verifications := repository.NewVerificationRepository(rdb)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)

	authService := services.NewAuthService(users, refreshTokens, hasher, issuer, cfg.StrictRefreshPlatform, logger)
	userService := services.NewUserService(users, verifications, hasher, mail, cfg, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler(
		func(ctx context.Context) error { return database.Ping(ctx, db) },
		verifications.Ping,
	)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			logger.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, issuer, authHandler, userHandler, healthHandler)

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("server stopped")
}
