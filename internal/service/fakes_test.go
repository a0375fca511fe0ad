package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/db"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/repository/sqlite"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

// fakeSource serves channel statistics from memory.
type fakeSource struct {
	mu         sync.Mutex
	configured bool
	channels   map[string]youtube.ChannelInfo
	failing    map[string]error
	resolved   map[string]string
	uploads    []model.RecentVideo
	uploadsErr error
	fetches    int
	resolves   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		configured: true,
		channels:   map[string]youtube.ChannelInfo{},
		failing:    map[string]error{},
		resolved:   map[string]string{},
	}
}

func (f *fakeSource) setSubs(externalID string, subs int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failing, externalID)
	info := f.channels[externalID]
	info.ExternalID = externalID
	if info.Name == "" {
		info.Name = "Channel " + externalID
	}
	info.Metrics = model.Metrics{Subscribers: subs, Views: subs * 100, Videos: 10}
	f.channels[externalID] = info
}

func (f *fakeSource) fail(externalID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[externalID] = err
}

func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) ResolveChannelID(_ context.Context, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves++
	if id, ok := f.resolved[query]; ok {
		return id, nil
	}
	if _, ok := f.channels[query]; ok {
		return query, nil
	}
	return "", fmt.Errorf("no channel found for %q: %w", query, apperr.ErrNotFound)
}

func (f *fakeSource) FetchChannel(_ context.Context, externalID string) (youtube.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if err, ok := f.failing[externalID]; ok {
		return youtube.ChannelInfo{}, err
	}
	info, ok := f.channels[externalID]
	if !ok {
		return youtube.ChannelInfo{}, apperr.ErrNotFound
	}
	return info, nil
}

func (f *fakeSource) RecentUploads(_ context.Context, _ string, limit int) ([]model.RecentVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadsErr != nil {
		return nil, f.uploadsErr
	}
	if len(f.uploads) > limit {
		return f.uploads[:limit], nil
	}
	return f.uploads, nil
}

// stepClock is a settable clock for walking through days.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) setDay(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = day(n).Add(15 * time.Hour)
}

func day(n int) time.Time {
	return time.Date(2024, time.May, n, 0, 0, 0, 0, time.UTC)
}

// env wires the services over an in-memory SQLite store.
type env struct {
	db        *sql.DB
	channels  *sqlite.ChannelRepo
	snapshots *sqlite.SnapshotRepo
	source    *fakeSource
	clock     *stepClock
	cache     *CacheService

	channelSvc   *ChannelService
	analyticsSvc *AnalyticsService
	syncSvc      *SyncService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), db.MemoryDSN, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	e := &env{
		db:        sqlDB,
		channels:  sqlite.NewChannelRepo(sqlDB),
		snapshots: sqlite.NewSnapshotRepo(sqlDB),
		source:    newFakeSource(),
		clock:     &stepClock{},
		cache:     NewCacheService("", 0, zerolog.Nop()),
	}
	e.clock.setDay(1)
	e.wire(e.channels, e.snapshots)
	return e
}

func (e *env) wire(channels ChannelStore, snapshots SnapshotStore) {
	cal := analytics.Calendar{Clock: e.clock, Loc: time.UTC}
	logger := zerolog.Nop()
	e.channelSvc = NewChannelService(channels, snapshots, e.source, e.cache, cal, logger)
	e.analyticsSvc = NewAnalyticsService(channels, snapshots, e.source, e.cache, cal, DefaultRecentUploads, logger)
	e.syncSvc = NewSyncService(channels, snapshots, e.source, e.cache, cal, logger)
}

// add tracks externalID on day n with subs subscribers.
func (e *env) add(t *testing.T, externalID string, n int, subs int64) *model.Channel {
	t.Helper()
	e.clock.setDay(n)
	e.source.setSubs(externalID, subs)
	ch, err := e.channelSvc.Add(context.Background(), model.AddChannelRequest{ChannelQuery: externalID})
	require.NoError(t, err)
	return ch
}

var errUnreachable = errors.New("connection refused")

// brokenChannels fails every List call.
type brokenChannels struct {
	ChannelStore
}

func (brokenChannels) List(context.Context, string) ([]model.Channel, error) {
	return nil, errUnreachable
}

// brokenBatch fails every batched commit.
type brokenBatch struct {
	SnapshotStore
}

func (brokenBatch) UpsertBatch(context.Context, time.Time, []model.SnapshotWrite) (int, error) {
	return 0, errUnreachable
}
