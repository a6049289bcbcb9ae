package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sikayetim/backend/internal/realtime"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	hub   *realtime.Hub
}

// NewHealthHandler takes a nil redis client when the relay bridge is off.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, hub: hub}
}

// Check - GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{"database": "ok"}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		status = fiber.StatusServiceUnavailable
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			// the relay still works locally without redis
			checks["redis"] = "down"
		}
	}

	body := fiber.Map{"status": "ok", "checks": checks, "relay_clients": h.hub.ClientCount()}
	if status != fiber.StatusOK {
		body["status"] = "degraded"
	}
	return c.Status(status).JSON(body)
}
