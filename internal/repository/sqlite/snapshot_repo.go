package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const snapshotColumns = `channel_id, date, subscriber_count, view_count, video_count`

// SnapshotRepo is the embedded counterpart of repository.SnapshotRepo.
type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func upsertSnapshot(ctx context.Context, q querier, channelID int64, day time.Time, m model.Metrics) (bool, error) {
	// The WHERE clause is also what lets SQLite parse ON CONFLICT after a SELECT.
	res, err := q.ExecContext(ctx, `
		INSERT INTO channel_snapshots (`+snapshotColumns+`)
		SELECT ?1, ?2, ?3, ?4, ?5
		WHERE EXISTS (SELECT 1 FROM channels WHERE id = ?1)
		ON CONFLICT (channel_id, date) DO UPDATE
		SET subscriber_count = excluded.subscriber_count,
		    view_count       = excluded.view_count,
		    video_count      = excluded.video_count`,
		channelID, analytics.FormatDay(day), m.Subscribers, m.Views, m.Videos)
	if err != nil {
		return false, translate(err, fmt.Sprintf("upsert snapshot %d/%s", channelID, analytics.FormatDay(day)))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, "upsert snapshot rows")
	}
	return n > 0, nil
}

func deleteSnapshots(ctx context.Context, q querier, channelID int64) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM channel_snapshots WHERE channel_id = ?`, channelID)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("delete snapshots of channel %d", channelID))
	}
	return res.RowsAffected()
}

func scanSnapshot(row scanner) (model.Snapshot, error) {
	var (
		s    model.Snapshot
		date string
	)
	if err := row.Scan(&s.ChannelID, &date, &s.Subscribers, &s.Views, &s.Videos); err != nil {
		return s, err
	}
	d, err := analytics.ParseDay(date)
	if err != nil {
		return s, fmt.Errorf("parse snapshot date %q: %w", date, err)
	}
	s.Date = d
	return s, nil
}

func collectSnapshots(rows *sql.Rows) ([]model.Snapshot, error) {
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

func collectByChannel(rows *sql.Rows) (map[int64]model.Snapshot, error) {
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

func (r *SnapshotRepo) Upsert(ctx context.Context, channelID int64, day time.Time, m model.Metrics) error {
	written, err := upsertSnapshot(ctx, r.db, channelID, day, m)
	if err != nil {
		return err
	}
	if !written {
		return fmt.Errorf("channel %d: %w", channelID, apperr.ErrNotFound)
	}
	return nil
}

func (r *SnapshotRepo) UpsertBatch(ctx context.Context, day time.Time, writes []model.SnapshotWrite) (int, error) {
	if len(writes) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, translate(err, "begin snapshot batch")
	}
	defer tx.Rollback()

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

	if err := tx.Commit(); err != nil {
		return 0, translate(err, "commit snapshot batch")
	}
	return written, nil
}

func (r *SnapshotRepo) ListByChannel(ctx context.Context, channelID int64, since *time.Time) ([]model.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM channel_snapshots
		WHERE channel_id = ?1 AND (?2 IS NULL OR date >= ?2)
		ORDER BY date ASC`, channelID, nullableDay(since))
	if err != nil {
		return nil, translate(err, "list snapshots")
	}
	snaps, err := collectSnapshots(rows)
	return snaps, translate(err, "scan snapshots")
}

func (r *SnapshotRepo) DeleteByChannel(ctx context.Context, channelID int64) error {
	_, err := deleteSnapshots(ctx, r.db, channelID)
	return err
}

func (r *SnapshotRepo) AsOf(ctx context.Context, channelID int64, target time.Time) (*model.Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM channel_snapshots
		WHERE channel_id = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1`, channelID, analytics.FormatDay(target)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "as-of snapshot")
	}
	return &s, nil
}

// AsOfAll ranks each channel's rows newest first and keeps rank one.
func (r *SnapshotRepo) AsOfAll(ctx context.Context, target time.Time) (map[int64]model.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM (
			SELECT `+snapshotColumns+`,
			       ROW_NUMBER() OVER (PARTITION BY channel_id ORDER BY date DESC) AS rn
			FROM channel_snapshots
			WHERE date <= ?
		)
		WHERE rn = 1`, analytics.FormatDay(target))
	if err != nil {
		return nil, translate(err, "as-of snapshots")
	}
	out, err := collectByChannel(rows)
	return out, translate(err, "scan as-of snapshots")
}

func (r *SnapshotRepo) Earliest(ctx context.Context, channelID int64) (*model.Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM channel_snapshots
		WHERE channel_id = ?
		ORDER BY date ASC
		LIMIT 1`, channelID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "earliest snapshot")
	}
	return &s, nil
}

func (r *SnapshotRepo) EarliestAll(ctx context.Context) (map[int64]model.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM (
			SELECT `+snapshotColumns+`,
			       ROW_NUMBER() OVER (PARTITION BY channel_id ORDER BY date ASC) AS rn
			FROM channel_snapshots
		)
		WHERE rn = 1`)
	if err != nil {
		return nil, translate(err, "earliest snapshots")
	}
	out, err := collectByChannel(rows)
	return out, translate(err, "scan earliest snapshots")
}

func (r *SnapshotRepo) Rollup(ctx context.Context, since *time.Time, until time.Time) ([]model.RollupBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date,
		       SUM(subscriber_count),
		       SUM(view_count),
		       SUM(video_count)
		FROM channel_snapshots
		WHERE date <= ?1 AND (?2 IS NULL OR date >= ?2)
		GROUP BY date
		ORDER BY date ASC`, analytics.FormatDay(until), nullableDay(since))
	if err != nil {
		return nil, translate(err, "rollup")
	}
	defer rows.Close()

	buckets := []model.RollupBucket{}
	for rows.Next() {
		var (
			b    model.RollupBucket
			date string
		)
		if err := rows.Scan(&date, &b.Subscribers, &b.Views, &b.Videos); err != nil {
			return nil, translate(err, "scan rollup")
		}
		if b.Date, err = analytics.ParseDay(date); err != nil {
			return nil, fmt.Errorf("parse rollup date %q: %w", date, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *SnapshotRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channel_snapshots`).Scan(&n); err != nil {
		return 0, translate(err, "count snapshots")
	}
	return n, nil
}
