package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const channelColumns = `id, external_id, name, nickname, category, image_url, uploads_playlist_id, created_at`

type ChannelRepo struct {
	db *sql.DB
}

func NewChannelRepo(db *sql.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

func scanChannel(row scanner) (*model.Channel, error) {
	var (
		ch        model.Channel
		uploads   sql.NullString
		createdAt string
	)
	err := row.Scan(&ch.ID, &ch.ExternalID, &ch.Name, &ch.Nickname, &ch.Category,
		&ch.ImageURL, &uploads, &createdAt)
	if err != nil {
		return nil, err
	}
	if uploads.Valid {
		ch.UploadsPlaylistID = &uploads.String
	}
	ch.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return &ch, nil
}

// List returns all channels ordered by id, optionally restricted to one category.
func (r *ChannelRepo) List(ctx context.Context, category string) ([]model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE (? = '' OR category = ?)
		ORDER BY id`, category, category)
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

func (r *ChannelRepo) FindByID(ctx context.Context, id int64) (*model.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("channel %d", id))
	}
	return ch, nil
}

func (r *ChannelRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE external_id = ?`, externalID))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("channel %s", externalID))
	}
	return ch, nil
}

// CreateWithSnapshot inserts the channel and its seed snapshot in one transaction.
func (r *ChannelRepo) CreateWithSnapshot(ctx context.Context, ch model.Channel, day time.Time, m model.Metrics) (*model.Channel, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(err, "begin create channel")
	}
	defer tx.Rollback()

	ch.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO channels (external_id, name, nickname, category, image_url, uploads_playlist_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ch.ExternalID, ch.Name, ch.Nickname, ch.Category, ch.ImageURL, ch.UploadsPlaylistID,
		ch.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("insert channel %s", ch.ExternalID))
	}
	if ch.ID, err = res.LastInsertId(); err != nil {
		return nil, translate(err, "channel id")
	}

	written, err := upsertSnapshot(ctx, tx, ch.ID, day, m)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, fmt.Errorf("seed snapshot for channel %d: %w", ch.ID, apperr.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, translate(err, "commit create channel")
	}
	return &ch, nil
}

func (r *ChannelRepo) UpdateTags(ctx context.Context, id int64, nickname, category *string) (*model.Channel, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE channels
		SET nickname = COALESCE(?, nickname),
		    category = COALESCE(?, category)
		WHERE id = ?`, nickname, category, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("update channel %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("channel %d: %w", id, apperr.ErrNotFound)
	}
	return r.FindByID(ctx, id)
}

// Delete removes a channel's snapshots and then the channel, in one transaction.
func (r *ChannelRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err, "begin delete channel")
	}
	defer tx.Rollback()

	if _, err := deleteSnapshots(ctx, tx, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete channel %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("channel %d: %w", id, apperr.ErrNotFound)
	}
	return translate(tx.Commit(), "commit delete channel")
}

func (r *ChannelRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM channels ORDER BY category`)
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

func (r *ChannelRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels`).Scan(&n); err != nil {
		return 0, translate(err, "count channels")
	}
	return n, nil
}
