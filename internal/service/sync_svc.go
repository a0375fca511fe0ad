package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/metrics"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

// SyncService runs the daily sync job: fetch every tracked channel once,
// sequentially, and commit today's snapshots in one batch. A channel that
// fails to fetch is recorded and skipped; it keeps its last known value.
type SyncService struct {
	channels  ChannelStore
	snapshots SnapshotStore
	source    youtube.Source
	cache     *CacheService
	calendar  analytics.Calendar
	logger    zerolog.Logger

	running atomic.Bool

	mu   sync.RWMutex
	last *model.SyncReport
}

func NewSyncService(channels ChannelStore, snapshots SnapshotStore, source youtube.Source, cache *CacheService, calendar analytics.Calendar, logger zerolog.Logger) *SyncService {
	return &SyncService{
		channels:  channels,
		snapshots: snapshots,
		source:    source,
		cache:     cache,
		calendar:  calendar,
		logger:    logger.With().Str("component", "sync").Logger(),
	}
}

// Run executes one sync. It returns apperr.ErrConflict without doing anything
// when a run is already in progress in this process. A missing API key is not
// an error: the report carries SyncNotConfigured. The returned error is
// non-nil only when the store could not be read or written.
func (s *SyncService) Run(ctx context.Context) (*model.SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("sync already running: %w", apperr.ErrConflict)
	}
	defer s.running.Store(false)

	start := time.Now()
	today := s.calendar.Today()
	report := &model.SyncReport{
		Status:    model.SyncRunning,
		Day:       analytics.FormatDay(today),
		StartedAt: start.UTC(),
		Failures:  []model.SyncFailure{},
	}

	err := s.run(ctx, today, report)
	if err != nil {
		report.Status = model.SyncFailed
		report.Error = err.Error()
	}
	report.FinishedAt = time.Now().UTC()

	metrics.SyncRuns.WithLabelValues(string(report.Status)).Inc()
	metrics.SyncDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.
		Str("status", string(report.Status)).
		Str("day", report.Day).
		Int("channels", report.Channels).
		Int("written", report.Written).
		Int("failures", len(report.Failures)).
		Dur("duration", time.Since(start)).
		Msg("sync finished")

	return report, err
}

func (s *SyncService) run(ctx context.Context, today time.Time, report *model.SyncReport) error {
	if !s.source.Configured() {
		s.logger.Warn().Msg("youtube api key not configured, skipping sync")
		report.Status = model.SyncNotConfigured
		return nil
	}

	channels, err := s.channels.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	report.Channels = len(channels)

	writes := make([]model.SnapshotWrite, 0, len(channels))
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}

		info, err := s.source.FetchChannel(ctx, ch.ExternalID)
		if err != nil {
			s.logger.Warn().Err(err).
				Int64("channel_id", ch.ID).
				Str("external_id", ch.ExternalID).
				Msg("channel fetch failed")
			metrics.SyncFetchFailures.WithLabelValues(ch.ExternalID).Inc()
			report.Failures = append(report.Failures, model.SyncFailure{
				ChannelID:  ch.ID,
				ExternalID: ch.ExternalID,
				Reason:     err.Error(),
			})
			continue
		}
		writes = append(writes, model.SnapshotWrite{ChannelID: ch.ID, Metrics: info.Metrics})
	}

	written, err := s.snapshots.UpsertBatch(ctx, today, writes)
	if err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	report.Written = written
	metrics.SnapshotsWritten.Add(float64(written))

	if written > 0 {
		if err := s.cache.InvalidateAnalytics(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("cache invalidation failed")
		}
	}

	report.Status = model.SyncCompleted
	if len(report.Failures) > 0 {
		report.Status = model.SyncCompletedWithErrors
	}
	return nil
}

// Status returns the state of the job: running, the last finished report, or
// idle when nothing has run since startup.
func (s *SyncService) Status() model.SyncReport {
	if s.running.Load() {
		return model.SyncReport{Status: model.SyncRunning, Failures: []model.SyncFailure{}}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return model.SyncReport{Status: model.SyncIdle, Failures: []model.SyncFailure{}}
	}
	return *s.last
}

// Last returns the last finished report, or nil.
func (s *SyncService) Last() *model.SyncReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}
