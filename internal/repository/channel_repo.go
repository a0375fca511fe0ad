package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const channelColumns = `id, external_id, name, nickname, category, image_url, uploads_playlist_id, created_at`

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

func scanChannel(row pgx.Row) (*model.Channel, error) {
	var ch model.Channel
	err := row.Scan(
		&ch.ID, &ch.ExternalID, &ch.Name, &ch.Nickname, &ch.Category,
		&ch.ImageURL, &ch.UploadsPlaylistID, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// List returns all channels ordered by id, optionally restricted to one category.
func (r *ChannelRepo) List(ctx context.Context, category string) ([]model.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE ($1::text = '' OR category = $1)
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, translate(err, "list channels")
	}
	defer rows.Close()

	channels := []model.Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, translate(err, "scan channel")
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// FindByID returns a single channel by its local id.
func (r *ChannelRepo) FindByID(ctx context.Context, id int64) (*model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`
	ch, err := scanChannel(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("channel %d", id))
	}
	return ch, nil
}

// FindByExternalID returns a single channel by its YouTube id.
func (r *ChannelRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE external_id = $1`
	ch, err := scanChannel(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("channel %s", externalID))
	}
	return ch, nil
}

// CreateWithSnapshot inserts the channel and its seed snapshot in one
// transaction. A duplicate external id yields apperr.ErrConflict.
func (r *ChannelRepo) CreateWithSnapshot(ctx context.Context, ch model.Channel, day time.Time, m model.Metrics) (*model.Channel, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, translate(err, "begin create channel")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO channels (external_id, name, nickname, category, image_url, uploads_playlist_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		ch.ExternalID, ch.Name, ch.Nickname, ch.Category, ch.ImageURL, ch.UploadsPlaylistID,
	).Scan(&ch.ID, &ch.CreatedAt)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("insert channel %s", ch.ExternalID))
	}

	written, err := upsertSnapshot(ctx, tx, ch.ID, day, m)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, fmt.Errorf("seed snapshot for channel %d: %w", ch.ID, apperr.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translate(err, "commit create channel")
	}
	return &ch, nil
}

// UpdateTags sets nickname and/or category; nil leaves a field unchanged.
func (r *ChannelRepo) UpdateTags(ctx context.Context, id int64, nickname, category *string) (*model.Channel, error) {
	query := `
		UPDATE channels
		SET nickname = COALESCE($2, nickname),
		    category = COALESCE($3, category)
		WHERE id = $1
		RETURNING ` + channelColumns

	ch, err := scanChannel(r.pool.QueryRow(ctx, query, id, nickname, category))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("update channel %d", id))
	}
	return ch, nil
}

// Delete removes a channel and all of its snapshots: children first, then the
// parent, in one transaction.
func (r *ChannelRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return translate(err, "begin delete channel")
	}
	defer tx.Rollback(ctx)

	if _, err := deleteSnapshots(ctx, tx, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete channel %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("channel %d: %w", id, apperr.ErrNotFound)
	}

	return translate(tx.Commit(ctx), "commit delete channel")
}

// Categories returns the distinct category tags in use, sorted.
func (r *ChannelRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM channels ORDER BY category`)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Count returns the number of tracked channels.
func (r *ChannelRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM channels`).Scan(&n); err != nil {
		return 0, translate(err, "count channels")
	}
	return n, nil
}
