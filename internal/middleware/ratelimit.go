package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = time.Hour
)

// RateLimitConfig allows Max requests per Window for each key. Spent
// capacity refills evenly over the window.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	KeyFn  func(c fiber.Ctx) string
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. Idle buckets are dropped by
// Run; without Run the map only grows with the number of distinct clients.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	config   RateLimitConfig
	every    time.Duration
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		config:   cfg,
		every:    cfg.Window / time.Duration(cfg.Max),
	}
}

// Run evicts idle buckets until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, e := range rl.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}

// decision is the outcome of one request against a key's bucket.
type decision struct {
	allowed    bool
	remaining  int
	resetAt    time.Time
	retryAfter time.Duration
}

func (rl *RateLimiter) take(key string, now time.Time) decision {
	rl.mu.Lock()
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(rl.every), rl.config.Max)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	lim := e.limiter
	rl.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{retryAfter: delay, resetAt: now.Add(delay)}
	}

	tokens := lim.TokensAt(now)
	missing := float64(rl.config.Max) - tokens
	return decision{
		allowed:   true,
		remaining: int(math.Max(math.Floor(tokens), 0)),
		resetAt:   now.Add(time.Duration(missing * float64(rl.every))),
	}
}

// Handler returns a Fiber middleware that enforces the limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		d := rl.take(rl.config.KeyFn(c), time.Now())

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(d.resetAt.Unix(), 10))

		if !d.allowed {
			retryAfter := int(math.Ceil(d.retryAfter.Seconds()))
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       "RATE_LIMITED",
					"message":    "Too many requests. Try again in " + strconv.Itoa(retryAfter) + " seconds.",
					"retryAfter": retryAfter,
				},
			})
		}
		return c.Next()
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// NewAddChannelRateLimiter: 10 req/min per IP. Each add spends YouTube quota.
func NewAddChannelRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 10, Window: time.Minute, KeyFn: KeyByIP})
}

// NewSyncRateLimiter: 2 req/min per IP
func NewSyncRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute, KeyFn: KeyByIP})
}

// NewExportRateLimiter: 30 req/min per IP
func NewExportRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 30, Window: time.Minute, KeyFn: KeyByIP})
}
