package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelpulse/internal/metrics"
	"github.com/mathieu-neron/channelpulse/pkg/hash"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	// ResolveCacheTTL is longer: a query maps to the same channel id for a long time.
	ResolveCacheTTL = 24 * time.Hour

	keyPrefix = "channelpulse:"
)

// CacheService provides a Redis cache-aside layer for dashboard and channel
// detail payloads and for query resolution.
type CacheService struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, ttl time.Duration, logger zerolog.Logger) *CacheService {
	logger = logger.With().Str("component", "cache").Logger()
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	disabled := &CacheService{ttl: ttl, logger: logger}

	if redisURL == "" {
		logger.Info().Msg("redis: no URL configured, caching disabled")
		return disabled
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return disabled
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		rdb.Close()
		return disabled
	}

	logger.Info().Dur("ttl", ttl).Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, ttl: ttl, logger: logger}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *CacheService) enabled() bool {
	return c != nil && c.rdb != nil
}

// getJSON loads key into out. It reports false on a miss, a disabled cache or
// an undecodable entry; read errors are logged, never returned.
func (c *CacheService) getJSON(ctx context.Context, key string, out any) bool {
	if !c.enabled() {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		metrics.CacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		metrics.CacheMisses.Inc()
		return false
	}
	metrics.CacheHits.Inc()
	return true
}

func (c *CacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (c *CacheService) GetDashboard(ctx context.Context, period string, out any) bool {
	return c.getJSON(ctx, dashboardKey(period), out)
}

func (c *CacheService) SetDashboard(ctx context.Context, period string, v any) {
	c.setJSON(ctx, dashboardKey(period), v, c.ttl)
}

func (c *CacheService) GetChannelDetail(ctx context.Context, id int64, period string, out any) bool {
	return c.getJSON(ctx, channelDetailKey(id, period), out)
}

func (c *CacheService) SetChannelDetail(ctx context.Context, id int64, period string, v any) {
	c.setJSON(ctx, channelDetailKey(id, period), v, c.ttl)
}

// GetResolved returns the cached channel id for a resolve query.
func (c *CacheService) GetResolved(ctx context.Context, query string) (string, bool) {
	var id string
	ok := c.getJSON(ctx, resolveKey(query), &id)
	return id, ok
}

func (c *CacheService) SetResolved(ctx context.Context, query, externalID string) {
	c.setJSON(ctx, resolveKey(query), externalID, ResolveCacheTTL)
}

// InvalidateAnalytics drops every cached dashboard and channel payload. Called
// after snapshots or the registry change.
func (c *CacheService) InvalidateAnalytics(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	for _, pattern := range []string{keyPrefix + "dashboard:*", keyPrefix + "channel:*"} {
		if err := c.deletePattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (c *CacheService) deletePattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", pattern, err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Close()
}

func dashboardKey(period string) string {
	return fmt.Sprintf("%sdashboard:%s", keyPrefix, period)
}

func channelDetailKey(id int64, period string) string {
	return fmt.Sprintf("%schannel:%d:%s", keyPrefix, id, period)
}

// resolveKey hashes the trimmed query. Case is kept: channel ids are case-sensitive.
func resolveKey(query string) string {
	return keyPrefix + "resolve:" + hash.Prefix(strings.TrimSpace(query), 16)
}
