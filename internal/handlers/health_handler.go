package handlers

import (
	"context"
	"time"

	"github.com/gasspot/gasspot-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	db    PingFunc
	redis PingFunc
}

func NewHealthHandler(db, redis PingFunc) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus, dbOK := probe(ctx, h.db)
	redisStatus, redisOK := probe(ctx, h.redis)
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Redis:     redisStatus,
	}
	if !dbOK || !redisOK {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func probe(ctx context.Context, ping PingFunc) (string, bool) {
	if ping == nil {
		return "disabled", true
	}
	if err := ping(ctx); err != nil {
		return "unhealthy: " + err.Error(), false
	}
	return "ok", true
}
