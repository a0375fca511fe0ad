package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mathieu-neron/channelpulse/internal/app"
	"github.com/mathieu-neron/channelpulse/internal/config"
	"github.com/mathieu-neron/channelpulse/internal/handler"
	"github.com/mathieu-neron/channelpulse/internal/metrics"
	"github.com/mathieu-neron/channelpulse/internal/middleware"
	"github.com/mathieu-neron/channelpulse/internal/router"
	"github.com/mathieu-neron/channelpulse/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := middleware.InitLogger("info", "channelpulse")
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := middleware.InitLogger(cfg.Logging.Level, "channelpulse")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	metrics.Register(prometheus.DefaultRegisterer, a.Pool)

	worker, err := service.NewSyncWorker(a.Sync, cfg.Sync.Schedule, cfg.Location(), cfg.Sync.OnStartup, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid sync schedule")
	}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	fiberApp := fiber.New(fiber.Config{
		AppName:      "ChannelPulse API",
		ServerHeader: "ChannelPulse",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	router.Setup(ctx, fiberApp, &router.Handlers{
		Dashboard: handler.NewDashboardHandler(a.Analytics),
		Channel:   handler.NewChannelHandler(a.Channels, a.Analytics),
		Export:    handler.NewExportHandler(a.Analytics),
		Sync:      handler.NewSyncHandler(a.Sync),
		Status:    handler.NewStatusHandler(a.Analytics, a.Sync),
		Health:    handler.NewHealthHandler(cfg.Database.Driver, a.PingDB, a.Cache.Client()),
	}, cfg.Server.CORSOrigins)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Server.Port).
			Str("env", cfg.Server.Environment).
			Str("driver", cfg.Database.Driver).
			Msg("ChannelPulse starting")
		listenErr <- fiberApp.Listen(":"+cfg.Server.Port, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server stopped")
		}
		stop()
	}

	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	<-workerDone
	logger.Info().Msg("shutdown complete")
}
