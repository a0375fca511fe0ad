// Command sync runs the daily sync job once and exits, for use from an
// external scheduler. Exit status: 0 completed or not configured, 1 failed,
// 2 completed with per-channel failures.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mathieu-neron/channelpulse/internal/app"
	"github.com/mathieu-neron/channelpulse/internal/config"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const runTimeout = 30 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		l := middleware.InitLogger("info", "channelpulse-sync")
		l.Error().Err(err).Msg("failed to load config")
		return 1
	}
	logger := middleware.InitLogger(cfg.Logging.Level, "channelpulse-sync")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize")
		return 1
	}
	defer a.Close()

	report, err := a.Sync.Run(ctx)
	if err != nil {
		return 1
	}
	return exitCode(report.Status)
}

func exitCode(status model.SyncStatus) int {
	switch status {
	case model.SyncCompleted, model.SyncNotConfigured:
		return 0
	case model.SyncCompletedWithErrors:
		return 2
	default:
		return 1
	}
}
