package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelpulse/internal/service"
)

// manualSyncTimeout bounds a sync triggered over HTTP.
const manualSyncTimeout = 10 * time.Minute

type SyncHandler struct {
	svc *service.SyncService
}

func NewSyncHandler(svc *service.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// Trigger handles POST /api/sync. It runs the job inline and returns the
// report; 409 when a run is already in progress.
func (h *SyncHandler) Trigger(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), manualSyncTimeout)
	defer cancel()

	report, err := h.svc.Run(ctx)
	if err != nil {
		if report != nil {
			// store failure: the report says what happened
			return c.Status(fiber.StatusInternalServerError).JSON(report)
		}
		return respondError(c, err, "Failed to run sync")
	}
	return c.JSON(report)
}

// Status handles GET /api/sync/status
func (h *SyncHandler) Status(c fiber.Ctx) error {
	return c.JSON(h.svc.Status())
}
