package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/export"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
	"github.com/mathieu-neron/channelpulse/internal/service"
)

type ExportHandler struct {
	svc *service.AnalyticsService
}

func NewExportHandler(svc *service.AnalyticsService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// CSV handles GET /api/channels/:id/export/csv?period=all
func (h *ExportHandler) CSV(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateChannelPathID(c.Params("id"))
	if errMsg != "" {
		return badRequest(c, errMsg)
	}
	period, errMsg := middleware.ValidatePeriod(c.Query("period"), analytics.PeriodAll)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	filename, snaps, err := h.svc.Export(c.Context(), id, period)
	if err != nil {
		return respondError(c, err, "Failed to export channel")
	}

	var buf bytes.Buffer
	if err := export.WriteSnapshotsCSV(&buf, snaps); err != nil {
		return respondError(c, err, "Failed to export channel")
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
