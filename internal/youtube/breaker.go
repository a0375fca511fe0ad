package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/metrics"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const breakerName = "youtube-api"

// BreakerSource guards a Source with a circuit breaker. Lookups that fail
// because the channel does not exist, the key is missing or the caller went
// away are not counted against the upstream.
type BreakerSource struct {
	src Source
	cb  *gobreaker.CircuitBreaker[any]
}

type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit. Zero means 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before probing. Zero means one minute.
	OpenTimeout time.Duration
}

func NewBreakerSource(src Source, settings BreakerSettings, logger zerolog.Logger) *BreakerSource {
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	timeout := settings.OpenTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	log := logger.With().Str("component", "youtube-breaker").Logger()
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerSource{src: src, cb: cb}
}

func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrNotConfigured) ||
		errors.Is(err, apperr.ErrInvalidInput) ||
		errors.Is(err, context.Canceled)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State exposes the breaker state for status reporting and tests.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerSource) Configured() bool {
	return b.src.Configured()
}

func (b *BreakerSource) ResolveChannelID(ctx context.Context, query string) (string, error) {
	return execute[string](b, func() (any, error) {
		return b.src.ResolveChannelID(ctx, query)
	})
}

func (b *BreakerSource) FetchChannel(ctx context.Context, externalID string) (ChannelInfo, error) {
	return execute[ChannelInfo](b, func() (any, error) {
		return b.src.FetchChannel(ctx, externalID)
	})
}

func (b *BreakerSource) RecentUploads(ctx context.Context, uploadsPlaylistID string, limit int) ([]model.RecentVideo, error) {
	return execute[[]model.RecentVideo](b, func() (any, error) {
		return b.src.RecentUploads(ctx, uploadsPlaylistID, limit)
	})
}

func execute[T any](b *BreakerSource, fn func() (any, error)) (T, error) {
	var zero T
	// Skip the breaker entirely when unconfigured so the state never moves.
	if !b.src.Configured() {
		return zero, apperr.ErrNotConfigured
	}
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("youtube unavailable: %w", err)
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}
