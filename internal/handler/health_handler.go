package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// healthTimeout bounds the database ping so a stalled pool fails the health check.
const healthTimeout = 2 * time.Second

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the ledger store is reachable.
type HealthHandler struct {
	pool Pinger
}

// NewHealthHandler creates a new HealthHandler with the given database pool.
func NewHealthHandler(pool Pinger) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Check handles GET /health.
// 200 {"status":"healthy","database_ms":n} when Postgres answers in time,
// 503 {"status":"unhealthy","error":...} otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
	defer cancel()

	start := time.Now()
	if err := h.pool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health check failed: ledger store unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"database_ms": time.Since(start).Milliseconds(),
	})
}
