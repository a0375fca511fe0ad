package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelpulse/internal/service"
)

type StatusHandler struct {
	analytics *service.AnalyticsService
	sync      *service.SyncService
}

func NewStatusHandler(analytics *service.AnalyticsService, sync *service.SyncService) *StatusHandler {
	return &StatusHandler{analytics: analytics, sync: sync}
}

// Get handles GET /api/status
func (h *StatusHandler) Get(c fiber.Ctx) error {
	resp, err := h.analytics.Status(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to load status")
	}
	resp.LastSync = h.sync.Last()
	return c.JSON(resp)
}
