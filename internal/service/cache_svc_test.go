package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCacheService_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	for name, c := range map[string]*CacheService{
		"nil":     nil,
		"no url":  NewCacheService("", 0, zerolog.Nop()),
		"bad url": NewCacheService("::not a url", 0, zerolog.Nop()),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, c.Client())

			var out map[string]any
			c.SetDashboard(ctx, "30d", map[string]any{"a": 1})
			assert.False(t, c.GetDashboard(ctx, "30d", &out))

			_, ok := c.GetResolved(ctx, "@handle")
			assert.False(t, ok)
			assert.NoError(t, c.InvalidateAnalytics(ctx))
			assert.NoError(t, c.Close())
		})
	}
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "channelpulse:dashboard:7d", dashboardKey("7d"))
	assert.Equal(t, "channelpulse:channel:42:all", channelDetailKey(42, "all"))

	k := resolveKey(" @Handle ")
	assert.Equal(t, resolveKey("@Handle"), k)
	assert.NotEqual(t, resolveKey("@handle"), k)
	assert.Len(t, k, len("channelpulse:resolve:")+16)
}
