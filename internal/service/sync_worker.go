package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
)

// syncRunTimeout bounds one scheduled run.
const syncRunTimeout = 30 * time.Minute

// SyncWorker triggers the sync job on a cron schedule (with a seconds field)
// and optionally once at startup.
type SyncWorker struct {
	svc       *SyncService
	cron      *cron.Cron
	schedule  string
	onStartup bool
	logger    zerolog.Logger

	ctx context.Context
}

// NewSyncWorker validates schedule and registers the job. An empty schedule
// disables periodic runs.
func NewSyncWorker(svc *SyncService, schedule string, loc *time.Location, onStartup bool, logger zerolog.Logger) (*SyncWorker, error) {
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.With().Str("component", "sync-worker").Logger()
	cronLogger := cron.PrintfLogger(&logger)

	w := &SyncWorker{
		svc:       svc,
		schedule:  schedule,
		onStartup: onStartup,
		logger:    logger,
		ctx:       context.Background(),
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}

	if schedule != "" {
		if _, err := w.cron.AddFunc(schedule, func() { w.run("schedule") }); err != nil {
			return nil, fmt.Errorf("sync schedule %q: %w", schedule, err)
		}
	}
	return w, nil
}

// Start runs the scheduler until ctx is cancelled. It blocks.
func (w *SyncWorker) Start(ctx context.Context) {
	w.ctx = ctx
	if w.schedule == "" {
		w.logger.Info().Msg("sync schedule empty, periodic sync disabled")
	} else {
		w.logger.Info().Str("schedule", w.schedule).Msg("sync worker starting")
		w.cron.Start()
	}

	if w.onStartup {
		go w.run("startup")
	}

	<-ctx.Done()
	w.logger.Info().Msg("sync worker stopping (context cancelled)")
	<-w.cron.Stop().Done()
}

func (w *SyncWorker) run(trigger string) {
	ctx, cancel := context.WithTimeout(w.ctx, syncRunTimeout)
	defer cancel()

	_, err := w.svc.Run(ctx)
	switch {
	case errors.Is(err, apperr.ErrConflict):
		w.logger.Info().Str("trigger", trigger).Msg("sync already running, skipped")
	case err != nil:
		w.logger.Error().Err(err).Str("trigger", trigger).Msg("sync run failed")
	}
}
