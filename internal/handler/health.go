package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// PingFunc checks that the store answers. Both *pgxpool.Pool.Ping and
// *sql.DB.PingContext fit.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	pingDB  PingFunc
	driver  string
	rdb     *redis.Client
	startAt time.Time
}

func NewHealthHandler(driver string, pingDB PingFunc, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		pingDB:  pingDB,
		driver:  driver,
		rdb:     rdb,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live, the liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready, the readiness probe. A down store makes
// the service unready; a down cache only degrades it.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	dbCheck := checkDB(ctx, h.pingDB)
	dbCheck["driver"] = h.driver
	redisCheck := checkRedis(ctx, h.rdb)

	overallStatus := "healthy"
	status := fiber.StatusOK
	switch {
	case dbCheck["status"] != "up":
		overallStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	case redisCheck["status"] == "down":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbCheck,
			"redis":    redisCheck,
		},
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	})
}

func checkDB(ctx context.Context, ping PingFunc) fiber.Map {
	if ping == nil {
		return fiber.Map{"status": "down", "error": "no database"}
	}
	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
