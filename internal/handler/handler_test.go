package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/db"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/repository/sqlite"
	"github.com/mathieu-neron/channelpulse/internal/service"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

// staticSource knows a fixed set of channels.
type staticSource struct {
	configured bool
	channels   map[string]model.Metrics
	err        error
}

func (s *staticSource) Configured() bool { return s.configured }

func (s *staticSource) ResolveChannelID(_ context.Context, query string) (string, error) {
	if !s.configured {
		return "", apperr.ErrNotConfigured
	}
	if s.err != nil {
		return "", s.err
	}
	if _, ok := s.channels[query]; ok {
		return query, nil
	}
	return "", errors.Join(apperr.ErrNotFound, errors.New("no channel found for "+query))
}

func (s *staticSource) FetchChannel(_ context.Context, id string) (youtube.ChannelInfo, error) {
	m, ok := s.channels[id]
	if !ok {
		return youtube.ChannelInfo{}, apperr.ErrNotFound
	}
	return youtube.ChannelInfo{ExternalID: id, Name: "My Channel", Metrics: m}, nil
}

func (s *staticSource) RecentUploads(context.Context, string, int) ([]model.RecentVideo, error) {
	return nil, nil
}

type testAPI struct {
	app    *fiber.App
	source *staticSource
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), db.MemoryDSN, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	channels := sqlite.NewChannelRepo(sqlDB)
	snapshots := sqlite.NewSnapshotRepo(sqlDB)
	source := &staticSource{
		configured: true,
		channels: map[string]model.Metrics{
			"UCaaaaaaaaaaaaaaaaaaaaaa": {Subscribers: 1500, Views: 250000, Videos: 40},
		},
	}
	cache := service.NewCacheService("", 0, zerolog.Nop())
	cal := analytics.Calendar{
		Clock: analytics.FixedClock{T: time.Date(2024, time.May, 3, 12, 0, 0, 0, time.UTC)},
		Loc:   time.UTC,
	}
	logger := zerolog.Nop()
	channelSvc := service.NewChannelService(channels, snapshots, source, cache, cal, logger)
	analyticsSvc := service.NewAnalyticsService(channels, snapshots, source, cache, cal, 5, logger)
	syncSvc := service.NewSyncService(channels, snapshots, source, cache, cal, logger)

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	ch := NewChannelHandler(channelSvc, analyticsSvc)
	health := NewHealthHandler("sqlite", sqlDB.PingContext, nil)
	app.Get("/health/ready", health.Ready)
	app.Get("/api/dashboard", NewDashboardHandler(analyticsSvc).Get)
	app.Get("/api/status", NewStatusHandler(analyticsSvc, syncSvc).Get)
	app.Get("/api/categories", ch.Categories)
	app.Get("/api/channels", ch.List)
	app.Post("/api/channels", ch.Create)
	app.Get("/api/channels/:id", ch.Detail)
	app.Patch("/api/channels/:id", ch.Update)
	app.Delete("/api/channels/:id", ch.Delete)
	app.Get("/api/channels/:id/export/csv", NewExportHandler(analyticsSvc).CSV)
	sync := NewSyncHandler(syncSvc)
	app.Post("/api/sync", sync.Trigger)
	app.Get("/api/sync/status", sync.Status)

	return &testAPI{app: app, source: source}
}

func (a *testAPI) do(t *testing.T, method, target, body string) (int, []byte, map[string][]string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw, resp.Header
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	return env.Error.Code
}

func (a *testAPI) addChannel(t *testing.T) model.Channel {
	t.Helper()
	status, raw, _ := a.do(t, fiber.MethodPost, "/api/channels",
		`{"channel_query":"UCaaaaaaaaaaaaaaaaaaaaaa","category":"Tech"}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var ch model.Channel
	require.NoError(t, json.Unmarshal(raw, &ch))
	return ch
}

func TestChannelLifecycle(t *testing.T) {
	api := newTestAPI(t)
	ch := api.addChannel(t)
	assert.Equal(t, "Tech", ch.Category)

	status, raw, _ := api.do(t, fiber.MethodPost, "/api/channels", `{"channel_query":"UCaaaaaaaaaaaaaaaaaaaaaa"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(t, raw))

	status, raw, _ = api.do(t, fiber.MethodGet, "/api/channels?category=Tech", "")
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Channels []model.ChannelListEntry `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Channels, 1)
	assert.Equal(t, int64(1500), list.Channels[0].Subscribers)

	status, raw, _ = api.do(t, fiber.MethodPatch, "/api/channels/1", `{"nickname":"Main"}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))
	require.NoError(t, json.Unmarshal(raw, &ch))
	assert.Equal(t, "Main", ch.Nickname)

	status, raw, _ = api.do(t, fiber.MethodGet, "/api/categories", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"categories":["Tech"]}`, string(raw))

	status, _, _ = api.do(t, fiber.MethodDelete, "/api/channels/1", "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, raw, _ = api.do(t, fiber.MethodGet, "/api/channels/1", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, raw))
}

func TestCreateChannel_Errors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{`, fiber.StatusBadRequest, "INVALID_FIELD"},
		{"missing query", `{"category":"Tech"}`, fiber.StatusBadRequest, "INVALID_FIELD"},
		{"category too long", `{"channel_query":"x","category":"` + strings.Repeat("c", 51) + `"}`, fiber.StatusBadRequest, "INVALID_FIELD"},
		{"unknown channel", `{"channel_query":"nobody"}`, fiber.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw, _ := api.do(t, fiber.MethodPost, "/api/channels", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errorCode(t, raw))
		})
	}
}

func TestCreateChannel_UpstreamErrors(t *testing.T) {
	api := newTestAPI(t)

	api.source.configured = false
	status, raw, _ := api.do(t, fiber.MethodPost, "/api/channels", `{"channel_query":"x"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "NOT_CONFIGURED", errorCode(t, raw))

	api.source.configured = true
	api.source.err = &apperr.TransportError{StatusCode: 403, Endpoint: "search"}
	status, raw, _ = api.do(t, fiber.MethodPost, "/api/channels", `{"channel_query":"x"}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, raw))

	api.source.err = errors.New("boom")
	status, raw, _ = api.do(t, fiber.MethodPost, "/api/channels", `{"channel_query":"x"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, raw))
	assert.NotContains(t, string(raw), "boom")
}

func TestParamValidation(t *testing.T) {
	api := newTestAPI(t)

	for _, target := range []string{
		"/api/channels/abc",
		"/api/channels/0",
		"/api/channels/1?period=2w",
		"/api/dashboard?period=weekly",
		"/api/channels/1/export/csv?period=5d",
	} {
		status, raw, _ := api.do(t, fiber.MethodGet, target, "")
		assert.Equal(t, fiber.StatusBadRequest, status, target)
		assert.Equal(t, "INVALID_FIELD", errorCode(t, raw), target)
	}

	status, _, _ := api.do(t, fiber.MethodPatch, "/api/channels/1", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDashboardAndDetail(t *testing.T) {
	api := newTestAPI(t)
	api.addChannel(t)

	status, raw, _ := api.do(t, fiber.MethodGet, "/api/dashboard", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var dash model.DashboardResponse
	require.NoError(t, json.Unmarshal(raw, &dash))
	assert.Equal(t, "30d", dash.Period)
	require.Len(t, dash.Channels, 1)
	assert.Equal(t, []string{"May 03"}, dash.ChartData.Labels)

	status, raw, _ = api.do(t, fiber.MethodGet, "/api/channels/1?period=7d", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var detail model.ChannelDetailResponse
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.Equal(t, int64(1500), detail.KPI.SubsTotal)
	assert.Equal(t, int64(0), detail.KPI.SubsChange)
	assert.NotNil(t, detail.RecentVideos)
}

func TestExportCSV(t *testing.T) {
	api := newTestAPI(t)
	api.addChannel(t)

	status, raw, header := api.do(t, fiber.MethodGet, "/api/channels/1/export/csv", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	assert.Equal(t, "text/csv; charset=utf-8", header["Content-Type"][0])
	assert.Equal(t, `attachment; filename="My_Channel_export_2024-05-03.csv"`, header["Content-Disposition"][0])
	assert.Equal(t, "Date,Subscribers,Total Views,Total Videos\n2024-05-03,1500,250000,40\n", string(raw))

	status, _, _ = api.do(t, fiber.MethodGet, "/api/channels/99/export/csv", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSyncAndStatus(t *testing.T) {
	api := newTestAPI(t)

	status, raw, _ := api.do(t, fiber.MethodGet, "/api/sync/status", "")
	require.Equal(t, fiber.StatusOK, status)
	var report model.SyncReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, model.SyncIdle, report.Status)

	api.addChannel(t)
	status, raw, _ = api.do(t, fiber.MethodPost, "/api/sync", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, model.SyncCompleted, report.Status)
	assert.Equal(t, 1, report.Written)

	status, raw, _ = api.do(t, fiber.MethodGet, "/api/status", "")
	require.Equal(t, fiber.StatusOK, status)
	var st model.StatusResponse
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.True(t, st.Configured)
	assert.Equal(t, 1, st.Channels)
	assert.Equal(t, int64(1), st.Snapshots)
	require.NotNil(t, st.LastSync)
	assert.Equal(t, model.SyncCompleted, st.LastSync.Status)
}

func TestHealthReady(t *testing.T) {
	api := newTestAPI(t)
	status, raw, _ := api.do(t, fiber.MethodGet, "/health/ready", "")
	require.Equal(t, fiber.StatusOK, status)
	var body struct {
		Status string `json:"status"`
		Checks map[string]map[string]any
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "up", body.Checks["database"]["status"])
	assert.Equal(t, "disabled", body.Checks["redis"]["status"])

	down := NewHealthHandler("postgres", func(context.Context) error { return errors.New("refused") }, nil)
	app := fiber.New()
	app.Get("/ready", down.Ready)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestSanitizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"/api/channels":               "/api/channels",
		"/api/channels/":              "/api/channels/",
		"/api/channels/42":            "/api/channels/:id",
		"/api/channels/42/export/csv": "/api/channels/:id/export/csv",
		"/api/dashboard":              "/api/dashboard",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeEndpoint(in), in)
	}
}
