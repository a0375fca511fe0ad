// Package app wires the configured store, cache, YouTube source and services
// together. Both binaries build on it so that the server and the one-shot
// sync see the same stack.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/config"
	"github.com/mathieu-neron/channelpulse/internal/db"
	"github.com/mathieu-neron/channelpulse/internal/handler"
	"github.com/mathieu-neron/channelpulse/internal/repository"
	"github.com/mathieu-neron/channelpulse/internal/repository/sqlite"
	"github.com/mathieu-neron/channelpulse/internal/service"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

type App struct {
	Config *config.Config

	Pool   *pgxpool.Pool // nil with the sqlite driver
	SQLite *sql.DB       // nil with the postgres driver
	PingDB handler.PingFunc

	Cache     *service.CacheService
	Source    *youtube.BreakerSource
	Channels  *service.ChannelService
	Analytics *service.AnalyticsService
	Sync      *service.SyncService
}

// New opens the store selected by cfg.Database.Driver and builds the services.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg}

	var (
		channels  service.ChannelStore
		snapshots service.SnapshotStore
	)
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		a.SQLite = sqlDB
		a.PingDB = sqlDB.PingContext
		channels = sqlite.NewChannelRepo(sqlDB)
		snapshots = sqlite.NewSnapshotRepo(sqlDB)
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.Pool = pool
		a.PingDB = pool.Ping
		channels = repository.NewChannelRepo(pool)
		snapshots = repository.NewSnapshotRepo(pool)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	a.Cache = service.NewCacheService(cfg.Redis.URL, cfg.Redis.CacheTTL, logger)

	client := youtube.New(youtube.Options{
		APIKey:            cfg.YouTube.APIKey,
		BaseURL:           cfg.YouTube.BaseURL,
		Timeout:           cfg.YouTube.Timeout,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Logger:            logger,
	})
	a.Source = youtube.NewBreakerSource(client, youtube.BreakerSettings{}, logger)
	if !a.Source.Configured() {
		logger.Warn().Msg("YOUTUBE_API_KEY not set, running without a metrics source")
	}

	calendar := analytics.Calendar{Loc: cfg.Location()}
	a.Channels = service.NewChannelService(channels, snapshots, a.Source, a.Cache, calendar, logger)
	a.Analytics = service.NewAnalyticsService(channels, snapshots, a.Source, a.Cache, calendar, cfg.YouTube.RecentUploads, logger)
	a.Sync = service.NewSyncService(channels, snapshots, a.Source, a.Cache, calendar, logger)
	return a, nil
}

// Close releases the store and the cache.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.SQLite != nil {
		errs = append(errs, a.SQLite.Close())
	}
	return errors.Join(errs...)
}
