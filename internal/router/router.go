package router

import (
	"context"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mathieu-neron/channelpulse/internal/handler"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Dashboard *handler.DashboardHandler
	Channel   *handler.ChannelHandler
	Export    *handler.ExportHandler
	Sync      *handler.SyncHandler
	Status    *handler.StatusHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber
// app. The rate limiters' cleanup loops stop when ctx is cancelled.
func Setup(ctx context.Context, app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	addLimiter := middleware.NewAddChannelRateLimiter()
	syncLimiter := middleware.NewSyncRateLimiter()
	exportLimiter := middleware.NewExportRateLimiter()
	for _, rl := range []*middleware.RateLimiter{addLimiter, syncLimiter, exportLimiter} {
		go rl.Run(ctx)
	}

	api := app.Group("/api")

	api.Get("/dashboard", h.Dashboard.Get)
	api.Get("/status", h.Status.Get)
	api.Get("/categories", h.Channel.Categories)

	// Channel routes
	api.Get("/channels", h.Channel.List)
	api.Post("/channels", addLimiter.Handler(), h.Channel.Create)
	api.Get("/channels/:id", h.Channel.Detail)
	api.Patch("/channels/:id", h.Channel.Update)
	api.Delete("/channels/:id", h.Channel.Delete)
	api.Get("/channels/:id/export/csv", exportLimiter.Handler(), h.Export.CSV)

	// Sync routes
	api.Post("/sync", syncLimiter.Handler(), h.Sync.Trigger)
	api.Get("/sync/status", h.Sync.Status)
}
