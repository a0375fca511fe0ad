package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

// ChannelService manages the channel registry: add (resolve, fetch, seed),
// retag, list and remove.
type ChannelService struct {
	channels  ChannelStore
	snapshots SnapshotStore
	source    youtube.Source
	cache     *CacheService
	calendar  analytics.Calendar
	logger    zerolog.Logger
}

func NewChannelService(channels ChannelStore, snapshots SnapshotStore, source youtube.Source, cache *CacheService, calendar analytics.Calendar, logger zerolog.Logger) *ChannelService {
	return &ChannelService{
		channels:  channels,
		snapshots: snapshots,
		source:    source,
		cache:     cache,
		calendar:  calendar,
		logger:    logger.With().Str("component", "channels").Logger(),
	}
}

// Add resolves the query, fetches the channel once and stores it together
// with today's seed snapshot.
func (s *ChannelService) Add(ctx context.Context, req model.AddChannelRequest) (*model.Channel, error) {
	if !s.source.Configured() {
		return nil, apperr.ErrNotConfigured
	}

	externalID, err := s.resolve(ctx, req.ChannelQuery)
	if err != nil {
		return nil, err
	}

	existing, err := s.channels.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("channel %s is already tracked as %d: %w", externalID, existing.ID, apperr.ErrConflict)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	info, err := s.source.FetchChannel(ctx, externalID)
	if err != nil {
		return nil, err
	}

	ch := model.Channel{
		ExternalID: info.ExternalID,
		Name:       info.Name,
		Nickname:   strings.TrimSpace(req.Nickname),
		Category:   normalizeCategory(req.Category),
		ImageURL:   info.ImageURL,
	}
	if info.UploadsPlaylistID != "" {
		ch.UploadsPlaylistID = &info.UploadsPlaylistID
	}

	today := s.calendar.Today()
	created, err := s.channels.CreateWithSnapshot(ctx, ch, today, info.Metrics)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info().
		Int64("channel_id", created.ID).
		Str("external_id", created.ExternalID).
		Int64("subscribers", info.Metrics.Subscribers).
		Msg("channel added")
	return created, nil
}

// resolve maps a user query to a channel id, consulting the cache first.
func (s *ChannelService) resolve(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("channel_query is required: %w", apperr.ErrInvalidInput)
	}
	if id, ok := s.cache.GetResolved(ctx, query); ok && id != "" {
		return id, nil
	}
	id, err := s.source.ResolveChannelID(ctx, query)
	if err != nil {
		return "", err
	}
	s.cache.SetResolved(ctx, query, id)
	return id, nil
}

// List returns the registry with each channel's last known metrics, ranked by
// subscribers. Channels without any snapshot yet sort last with zero metrics.
func (s *ChannelService) List(ctx context.Context, category string) ([]model.ChannelListEntry, error) {
	channels, err := s.channels.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	latest, err := s.snapshots.AsOfAll(ctx, s.calendar.Today())
	if err != nil {
		return nil, err
	}

	entries := make([]model.ChannelListEntry, 0, len(channels))
	for _, ch := range channels {
		entry := model.ChannelListEntry{Channel: ch}
		if snap, ok := latest[ch.ID]; ok {
			entry.Subscribers = snap.Subscribers
			entry.Views = snap.Views
			entry.Videos = snap.Videos
			entry.LastSynced = analytics.FormatDay(snap.Date)
		}
		entries = append(entries, entry)
	}
	analytics.RankEntries(entries)
	return entries, nil
}

func (s *ChannelService) Get(ctx context.Context, id int64) (*model.Channel, error) {
	return s.channels.FindByID(ctx, id)
}

// UpdateTags changes nickname and/or category. An empty category resets to
// the default one.
func (s *ChannelService) UpdateTags(ctx context.Context, id int64, req model.UpdateChannelRequest) (*model.Channel, error) {
	var nickname, category *string
	if req.Nickname != nil {
		n := strings.TrimSpace(*req.Nickname)
		nickname = &n
	}
	if req.Category != nil {
		c := normalizeCategory(*req.Category)
		category = &c
	}

	ch, err := s.channels.UpdateTags(ctx, id, nickname, category)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return ch, nil
}

// Delete removes the channel and its whole history.
func (s *ChannelService) Delete(ctx context.Context, id int64) error {
	if err := s.channels.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info().Int64("channel_id", id).Msg("channel removed")
	return nil
}

func (s *ChannelService) Categories(ctx context.Context) ([]string, error) {
	return s.channels.Categories(ctx)
}

func (s *ChannelService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAnalytics(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}

func normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return model.DefaultCategory
	}
	return c
}
