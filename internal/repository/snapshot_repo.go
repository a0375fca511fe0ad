package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const snapshotColumns = `channel_id, date, subscriber_count, view_count, video_count`

// SnapshotRepo stores one metrics row per (channel, day).
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// upsertSnapshot writes metrics for (channelID, day) in a single statement.
// The row is only inserted when the channel exists; written is false otherwise.
func upsertSnapshot(ctx context.Context, q querier, channelID int64, day time.Time, m model.Metrics) (written bool, err error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO channel_snapshots (`+snapshotColumns+`)
		SELECT $1::bigint, $2::date, $3::bigint, $4::bigint, $5::bigint
		WHERE EXISTS (SELECT 1 FROM channels WHERE id = $1::bigint)
		ON CONFLICT (channel_id, date) DO UPDATE
		SET subscriber_count = EXCLUDED.subscriber_count,
		    view_count       = EXCLUDED.view_count,
		    video_count      = EXCLUDED.video_count`,
		channelID, day, m.Subscribers, m.Views, m.Videos)
	if err != nil {
		return false, translate(err, fmt.Sprintf("upsert snapshot %d/%s", channelID, day.Format(model.DateLayout)))
	}
	return tag.RowsAffected() > 0, nil
}

func deleteSnapshots(ctx context.Context, q querier, channelID int64) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM channel_snapshots WHERE channel_id = $1`, channelID)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("delete snapshots of channel %d", channelID))
	}
	return tag.RowsAffected(), nil
}

func scanSnapshot(row pgx.Row) (model.Snapshot, error) {
	var s model.Snapshot
	err := row.Scan(&s.ChannelID, &s.Date, &s.Subscribers, &s.Views, &s.Videos)
	s.Date = s.Date.UTC()
	return s, err
}

func collectSnapshots(rows pgx.Rows) ([]model.Snapshot, error) {
	defer rows.Close()
	snaps := []model.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func collectByChannel(rows pgx.Rows) (map[int64]model.Snapshot, error) {
	snaps, err := collectSnapshots(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]model.Snapshot, len(snaps))
	for _, s := range snaps {
		out[s.ChannelID] = s
	}
	return out, nil
}

// Upsert writes metrics for (channelID, day), overwriting any existing row for
// that day. Returns apperr.ErrNotFound when the channel does not exist.
func (r *SnapshotRepo) Upsert(ctx context.Context, channelID int64, day time.Time, m model.Metrics) error {
	written, err := upsertSnapshot(ctx, r.pool, channelID, day, m)
	if err != nil {
		return err
	}
	if !written {
		return fmt.Errorf("channel %d: %w", channelID, apperr.ErrNotFound)
	}
	return nil
}

// UpsertBatch applies all writes for day in one transaction. Writes whose
// channel no longer exists are skipped; any other failure rolls back the batch.
func (r *SnapshotRepo) UpsertBatch(ctx context.Context, day time.Time, writes []model.SnapshotWrite) (int, error) {
	if len(writes) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, translate(err, "begin snapshot batch")
	}
	defer tx.Rollback(ctx)

	written := 0
	for _, w := range writes {
		ok, err := upsertSnapshot(ctx, tx, w.ChannelID, day, w.Metrics)
		if err != nil {
			return 0, err
		}
		if ok {
			written++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, translate(err, "commit snapshot batch")
	}
	return written, nil
}

// ListByChannel returns a channel's snapshots in ascending date order. A nil
// since returns the full history.
func (r *SnapshotRepo) ListByChannel(ctx context.Context, channelID int64, since *time.Time) ([]model.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM channel_snapshots
		WHERE channel_id = $1 AND ($2::date IS NULL OR date >= $2::date)
		ORDER BY date ASC`, channelID, since)
	if err != nil {
		return nil, translate(err, "list snapshots")
	}
	snaps, err := collectSnapshots(rows)
	return snaps, translate(err, "scan snapshots")
}

// DeleteByChannel removes every snapshot of a channel.
func (r *SnapshotRepo) DeleteByChannel(ctx context.Context, channelID int64) error {
	_, err := deleteSnapshots(ctx, r.pool, channelID)
	return err
}

// AsOf returns the latest snapshot dated on or before target, or nil.
func (r *SnapshotRepo) AsOf(ctx context.Context, channelID int64, target time.Time) (*model.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM channel_snapshots
		WHERE channel_id = $1 AND date <= $2::date
		ORDER BY date DESC
		LIMIT 1`, channelID, target))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "as-of snapshot")
	}
	return &s, nil
}

// AsOfAll is AsOf for every channel at once, keyed by channel id. Channels
// with nothing on or before target are absent.
func (r *SnapshotRepo) AsOfAll(ctx context.Context, target time.Time) (map[int64]model.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (channel_id) `+snapshotColumns+`
		FROM channel_snapshots
		WHERE date <= $1::date
		ORDER BY channel_id, date DESC`, target)
	if err != nil {
		return nil, translate(err, "as-of snapshots")
	}
	out, err := collectByChannel(rows)
	return out, translate(err, "scan as-of snapshots")
}

// Earliest returns a channel's first snapshot, or nil.
func (r *SnapshotRepo) Earliest(ctx context.Context, channelID int64) (*model.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM channel_snapshots
		WHERE channel_id = $1
		ORDER BY date ASC
		LIMIT 1`, channelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "earliest snapshot")
	}
	return &s, nil
}

// EarliestAll returns every channel's first snapshot keyed by channel id.
func (r *SnapshotRepo) EarliestAll(ctx context.Context) (map[int64]model.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (channel_id) `+snapshotColumns+`
		FROM channel_snapshots
		ORDER BY channel_id, date ASC`)
	if err != nil {
		return nil, translate(err, "earliest snapshots")
	}
	out, err := collectByChannel(rows)
	return out, translate(err, "scan earliest snapshots")
}

// Rollup sums all channels' snapshots per exact date in [since, until],
// ascending. Days without any snapshot produce no bucket.
func (r *SnapshotRepo) Rollup(ctx context.Context, since *time.Time, until time.Time) ([]model.RollupBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date,
		       SUM(subscriber_count)::bigint,
		       SUM(view_count)::bigint,
		       SUM(video_count)::bigint
		FROM channel_snapshots
		WHERE date <= $2::date AND ($1::date IS NULL OR date >= $1::date)
		GROUP BY date
		ORDER BY date ASC`, since, until)
	if err != nil {
		return nil, translate(err, "rollup")
	}
	defer rows.Close()

	buckets := []model.RollupBucket{}
	for rows.Next() {
		var b model.RollupBucket
		if err := rows.Scan(&b.Date, &b.Subscribers, &b.Views, &b.Videos); err != nil {
			return nil, translate(err, "scan rollup")
		}
		b.Date = b.Date.UTC()
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Count returns the total number of stored snapshots.
func (r *SnapshotRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM channel_snapshots`).Scan(&n); err != nil {
		return 0, translate(err, "count snapshots")
	}
	return n, nil
}
