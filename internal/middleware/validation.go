package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/samber/lo"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
)

// Field length limits matching database schema constraints.
const (
	MaxCategoryLen = 50  // channels.category VARCHAR(50)
	MaxNicknameLen = 100 // channels.nickname VARCHAR(100)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// Validator returns the shared validator. Field names in messages are the
// JSON names clients send.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs struct tag validation on a decoded request body and
// returns a client-facing message, or "" when the body is valid.
func ValidateStruct(v any) string {
	err := Validator().Struct(v)
	if err == nil {
		return ""
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// ValidateChannelPathID parses the :id route parameter.
func ValidateChannelPathID(raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "channel id is required"
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, "channel id must be a positive integer"
	}
	return id, ""
}

var periodMessage = "period must be one of " +
	strings.Join(lo.Map(analytics.Periods, func(p analytics.Period, _ int) string { return p.String() }), ", ")

// ValidatePeriod parses the period query parameter; empty yields def.
func ValidatePeriod(raw string, def analytics.Period) (analytics.Period, string) {
	p, err := analytics.ParsePeriod(strings.TrimSpace(strings.ToLower(raw)), def)
	if err != nil {
		return "", periodMessage
	}
	return p, ""
}

// ValidateCategory trims the category query filter.
func ValidateCategory(raw string) (string, string) {
	c := strings.TrimSpace(raw)
	if len(c) > MaxCategoryLen {
		return "", fmt.Sprintf("category must be at most %d characters", MaxCategoryLen)
	}
	return c, ""
}
