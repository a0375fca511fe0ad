package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/service"
)

type ChannelHandler struct {
	channels  *service.ChannelService
	analytics *service.AnalyticsService
}

func NewChannelHandler(channels *service.ChannelService, analytics *service.AnalyticsService) *ChannelHandler {
	return &ChannelHandler{channels: channels, analytics: analytics}
}

// List handles GET /api/channels?category=
func (h *ChannelHandler) List(c fiber.Ctx) error {
	category, errMsg := middleware.ValidateCategory(c.Query("category"))
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	entries, err := h.channels.List(c.Context(), category)
	if err != nil {
		return respondError(c, err, "Failed to list channels")
	}
	return c.JSON(fiber.Map{"channels": entries})
}

// Create handles POST /api/channels
func (h *ChannelHandler) Create(c fiber.Ctx) error {
	var req model.AddChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if errMsg := middleware.ValidateStruct(req); errMsg != "" {
		return badRequest(c, errMsg)
	}

	ch, err := h.channels.Add(c.Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to add channel")
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

// Detail handles GET /api/channels/:id?period=30d
func (h *ChannelHandler) Detail(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateChannelPathID(c.Params("id"))
	if errMsg != "" {
		return badRequest(c, errMsg)
	}
	period, errMsg := middleware.ValidatePeriod(c.Query("period"), analytics.Period30D)
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	resp, err := h.analytics.ChannelDetail(c.Context(), id, period)
	if err != nil {
		return respondError(c, err, "Failed to load channel")
	}
	return c.JSON(resp)
}

// Update handles PATCH /api/channels/:id
func (h *ChannelHandler) Update(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateChannelPathID(c.Params("id"))
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	var req model.UpdateChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if errMsg := middleware.ValidateStruct(req); errMsg != "" {
		return badRequest(c, errMsg)
	}
	if req.Nickname == nil && req.Category == nil {
		return badRequest(c, "nickname or category is required")
	}

	ch, err := h.channels.UpdateTags(c.Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update channel")
	}
	return c.JSON(ch)
}

// Delete handles DELETE /api/channels/:id
func (h *ChannelHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateChannelPathID(c.Params("id"))
	if errMsg != "" {
		return badRequest(c, errMsg)
	}

	if err := h.channels.Delete(c.Context(), id); err != nil {
		return respondError(c, err, "Failed to delete channel")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Categories handles GET /api/categories
func (h *ChannelHandler) Categories(c fiber.Ctx) error {
	categories, err := h.channels.Categories(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to list categories")
	}
	return c.JSON(fiber.Map{"categories": categories})
}
