package service

import (
	"context"
	"time"

	"github.com/mathieu-neron/channelpulse/internal/model"
)

// ChannelStore is the channel registry. Implemented by repository.ChannelRepo
// (Postgres) and sqlite.ChannelRepo.
type ChannelStore interface {
	List(ctx context.Context, category string) ([]model.Channel, error)
	FindByID(ctx context.Context, id int64) (*model.Channel, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.Channel, error)
	CreateWithSnapshot(ctx context.Context, ch model.Channel, day time.Time, m model.Metrics) (*model.Channel, error)
	UpdateTags(ctx context.Context, id int64, nickname, category *string) (*model.Channel, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// SnapshotStore holds the daily metric rows and the point-in-time queries
// over them.
type SnapshotStore interface {
	Upsert(ctx context.Context, channelID int64, day time.Time, m model.Metrics) error
	UpsertBatch(ctx context.Context, day time.Time, writes []model.SnapshotWrite) (int, error)
	ListByChannel(ctx context.Context, channelID int64, since *time.Time) ([]model.Snapshot, error)
	DeleteByChannel(ctx context.Context, channelID int64) error
	AsOf(ctx context.Context, channelID int64, target time.Time) (*model.Snapshot, error)
	AsOfAll(ctx context.Context, target time.Time) (map[int64]model.Snapshot, error)
	Earliest(ctx context.Context, channelID int64) (*model.Snapshot, error)
	EarliestAll(ctx context.Context) (map[int64]model.Snapshot, error)
	Rollup(ctx context.Context, since *time.Time, until time.Time) ([]model.RollupBucket, error)
	Count(ctx context.Context) (int64, error)
}
