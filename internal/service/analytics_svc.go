package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/mathieu-neron/channelpulse/internal/analytics"
	"github.com/mathieu-neron/channelpulse/internal/export"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

// DefaultRecentUploads is how many uploads the channel detail lists.
const DefaultRecentUploads = 5

// AnalyticsService answers dashboard, channel detail and export queries from
// the snapshot store. Current values and deltas are last-known (as-of);
// charts and the dashboard aggregate are exact-date rollups.
type AnalyticsService struct {
	channels      ChannelStore
	snapshots     SnapshotStore
	source        youtube.Source
	cache         *CacheService
	calendar      analytics.Calendar
	recentUploads int
	logger        zerolog.Logger
}

func NewAnalyticsService(channels ChannelStore, snapshots SnapshotStore, source youtube.Source, cache *CacheService, calendar analytics.Calendar, recentUploads int, logger zerolog.Logger) *AnalyticsService {
	if recentUploads < 0 {
		recentUploads = DefaultRecentUploads
	}
	return &AnalyticsService{
		channels:      channels,
		snapshots:     snapshots,
		source:        source,
		cache:         cache,
		calendar:      calendar,
		recentUploads: recentUploads,
		logger:        logger.With().Str("component", "analytics").Logger(),
	}
}

// baselines returns every channel's baseline for p: the value as of the window
// start, or the first snapshot ever for the unbounded period.
func (s *AnalyticsService) baselines(ctx context.Context, p analytics.Period, today time.Time) (map[int64]model.Snapshot, error) {
	if since := p.Since(today); since != nil {
		return s.snapshots.AsOfAll(ctx, *since)
	}
	return s.snapshots.EarliestAll(ctx)
}

// detailBaseline is the KPI baseline of one channel: the value as of the
// window start, or its first snapshot when the channel is younger than the
// window or the period is unbounded.
func (s *AnalyticsService) detailBaseline(ctx context.Context, channelID int64, p analytics.Period, today time.Time) (*model.Snapshot, error) {
	if since := p.Since(today); since != nil {
		base, err := s.snapshots.AsOf(ctx, channelID, *since)
		if err != nil || base != nil {
			return base, err
		}
	}
	return s.snapshots.Earliest(ctx, channelID)
}

// Dashboard builds the summary cards, the cross-channel chart and the ranked
// channel rows for period.
func (s *AnalyticsService) Dashboard(ctx context.Context, period analytics.Period) (*model.DashboardResponse, error) {
	var cached model.DashboardResponse
	if s.cache.GetDashboard(ctx, period.String(), &cached) {
		return &cached, nil
	}

	today := s.calendar.Today()

	channels, err := s.channels.List(ctx, "")
	if err != nil {
		return nil, err
	}
	latest, err := s.snapshots.AsOfAll(ctx, today)
	if err != nil {
		return nil, err
	}

	deltaPeriods := append([]analytics.Period{}, analytics.DashboardPeriods...)
	if !lo.Contains(deltaPeriods, period) {
		deltaPeriods = append(deltaPeriods, period)
	}
	baselines := make(map[analytics.Period]map[int64]model.Snapshot, len(deltaPeriods))
	for _, p := range deltaPeriods {
		if baselines[p], err = s.baselines(ctx, p, today); err != nil {
			return nil, err
		}
	}

	rows := make([]model.ChannelDashboardRow, 0, len(channels))
	for _, ch := range channels {
		cur, ok := latest[ch.ID]
		if !ok {
			continue
		}
		row := model.ChannelDashboardRow{
			ID:          ch.ID,
			ExternalID:  ch.ExternalID,
			Name:        ch.Name,
			Nickname:    ch.Nickname,
			Category:    ch.Category,
			ImageURL:    ch.ImageURL,
			Subscribers: cur.Subscribers,
			Views:       cur.Views,
			Videos:      cur.Videos,
			Deltas:      make(map[string]model.Delta, len(deltaPeriods)),
		}
		for _, p := range deltaPeriods {
			var base *model.Snapshot
			if b, ok := baselines[p][ch.ID]; ok {
				base = &b
			}
			row.Deltas[p.String()] = analytics.ChannelDelta(&cur, base)
		}
		rows = append(rows, row)
	}
	analytics.RankBySubscribers(rows)

	buckets, err := s.snapshots.Rollup(ctx, period.Since(today), today)
	if err != nil {
		return nil, err
	}

	resp := &model.DashboardResponse{
		Period:    period.String(),
		Summary:   summaryCards(len(channels), rows, analytics.AggregateDelta(buckets)),
		ChartData: analytics.ChartFromBuckets(buckets, analytics.DashboardLabelLayout),
		Channels:  rows,
	}
	s.cache.SetDashboard(ctx, period.String(), resp)
	return resp, nil
}

// summaryCards totals the reporting rows; the channel card counts the whole
// registry, including channels without data yet.
func summaryCards(tracked int, rows []model.ChannelDashboardRow, agg analytics.Aggregate) []model.SummaryCard {
	var subs, views, videos int64
	for _, r := range rows {
		subs += r.Subscribers
		views += r.Views
		videos += r.Videos
	}
	return []model.SummaryCard{
		{
			ID:         "channels",
			Title:      "Tracked Channels",
			Value:      strconv.Itoa(tracked),
			IsPositive: true,
		},
		metricCard("subscribers", "Total Subscribers", subs, agg.Delta.Subscribers, agg.SubscribersPercent()),
		metricCard("views", "Total Views", views, agg.Delta.Views, agg.ViewsPercent()),
		metricCard("videos", "Total Videos", videos, agg.Delta.Videos, agg.VideosPercent()),
	}
}

func metricCard(id, title string, value, delta int64, percent float64) model.SummaryCard {
	return model.SummaryCard{
		ID:         id,
		Title:      title,
		Value:      analytics.FormatCompact(value),
		Change:     analytics.FormatSigned(delta) + " (" + analytics.FormatPercent(percent) + ")",
		IsPositive: delta >= 0,
	}
}

// ChannelDetail returns the KPI block, the channel's own chart over period and
// its most recent uploads. Upload lookup failures degrade to an empty list.
func (s *AnalyticsService) ChannelDetail(ctx context.Context, id int64, period analytics.Period) (*model.ChannelDetailResponse, error) {
	var cached model.ChannelDetailResponse
	if s.cache.GetChannelDetail(ctx, id, period.String(), &cached) {
		return &cached, nil
	}

	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	today := s.calendar.Today()
	snaps, err := s.snapshots.ListByChannel(ctx, id, period.Since(today))
	if err != nil {
		return nil, err
	}
	latest, err := s.snapshots.AsOf(ctx, id, today)
	if err != nil {
		return nil, err
	}
	base, err := s.detailBaseline(ctx, id, period, today)
	if err != nil {
		return nil, err
	}

	kpi := model.ChannelKPI{}
	if latest != nil {
		kpi.SubsTotal = latest.Subscribers
		kpi.ViewsTotal = latest.Views
		kpi.VideosTotal = latest.Videos
		d := analytics.ChannelDelta(latest, base)
		kpi.SubsChange, kpi.ViewsChange, kpi.VideosChange = d.Subscribers, d.Views, d.Videos
	}

	resp := &model.ChannelDetailResponse{
		Channel:      *ch,
		Period:       period.String(),
		KPI:          kpi,
		ChartData:    analytics.ChartFromSnapshots(snaps, analytics.DetailLabelLayout),
		RecentVideos: s.recentVideos(ctx, ch),
	}
	s.cache.SetChannelDetail(ctx, id, period.String(), resp)
	return resp, nil
}

func (s *AnalyticsService) recentVideos(ctx context.Context, ch *model.Channel) []model.RecentVideo {
	if ch.UploadsPlaylistID == nil || s.recentUploads == 0 || !s.source.Configured() {
		return []model.RecentVideo{}
	}
	videos, err := s.source.RecentUploads(ctx, *ch.UploadsPlaylistID, s.recentUploads)
	if err != nil {
		s.logger.Warn().Err(err).Int64("channel_id", ch.ID).Msg("recent uploads unavailable")
		return []model.RecentVideo{}
	}
	return videos
}

// Export returns the download filename and the channel's snapshots within
// period, ascending.
func (s *AnalyticsService) Export(ctx context.Context, id int64, period analytics.Period) (string, []model.Snapshot, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	today := s.calendar.Today()
	snaps, err := s.snapshots.ListByChannel(ctx, id, period.Since(today))
	if err != nil {
		return "", nil, err
	}
	return export.Filename(ch.Name, today), snaps, nil
}

// Status reports whether the source is configured and how much is stored.
func (s *AnalyticsService) Status(ctx context.Context) (*model.StatusResponse, error) {
	channels, err := s.channels.Count(ctx)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.snapshots.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &model.StatusResponse{
		Configured: s.source.Configured(),
		Channels:   channels,
		Snapshots:  snapshots,
	}, nil
}
