package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
	"github.com/mathieu-neron/channelpulse/internal/service"
)

type DashboardHandler struct {
	svc *service.AnalyticsService
}

func NewDashboardHandler(svc *service.AnalyticsService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Get handles GET /api/dashboard?period=30d
func (h *DashboardHandler) Get(c fiber.Ctx) error {
	period, errMsg := middleware.ValidatePeriod(c.Query("period"), analytics.Period30D)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	resp, err := h.svc.Dashboard(c.Context(), period)
	if err != nil {
		return respondError(c, err, "Failed to build dashboard")
	}
	return c.JSON(resp)
}
