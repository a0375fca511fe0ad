package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
)

// respondError maps a domain error to the API error envelope. Unexpected
// errors are logged with detail and answered with a generic message.
func respondError(c fiber.Ctx, err error, fallback string) error {
	var te *apperr.TransportError
	switch {
	case errors.Is(err, apperr.ErrNotConfigured):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "NOT_CONFIGURED",
			"YouTube API key is not configured")
	case errors.Is(err, apperr.ErrInvalidInput):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.As(err, &te):
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR",
			fmt.Sprintf("YouTube API request failed (status %d)", te.StatusCode))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE",
			"YouTube API is temporarily unavailable")
	}

	middleware.Logger.Error().Err(err).
		Str("method", c.Method()).
		Str("route", c.Route().Path).
		Msg(fallback)
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

func badRequest(c fiber.Ctx, msg string) error {
	return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
}
