// Package youtube is a small client for the parts of the YouTube Data API v3
// the service needs: resolving a user query to a channel id, reading channel
// statistics and listing recent uploads.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/metrics"
	"github.com/mathieu-neron/channelpulse/internal/model"
)

const DefaultBaseURL = "https://www.googleapis.com/youtube/v3/"

// Source is the external metrics source consumed by the services.
type Source interface {
	ResolveChannelID(ctx context.Context, query string) (string, error)
	FetchChannel(ctx context.Context, externalID string) (ChannelInfo, error)
	RecentUploads(ctx context.Context, uploadsPlaylistID string, limit int) ([]model.RecentVideo, error)
	Configured() bool
}

// ChannelInfo is one channel read from the API.
type ChannelInfo struct {
	ExternalID        string
	Name              string
	ImageURL          string
	UploadsPlaylistID string
	Metrics           model.Metrics
}

type Options struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            zerolog.Logger
}

// Client talks to the YouTube Data API. An empty API key is a valid,
// unconfigured client: every call returns apperr.ErrNotConfigured without
// touching the network.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func New(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}

	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: base,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  opts.Logger.With().Str("component", "youtube").Logger(),
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// get performs one GET against endpoint and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if !c.Configured() {
		return apperr.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("youtube %s: rate limiter: %w", endpoint, err)
	}

	params.Set("key", c.apiKey)
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("youtube %s: create request: %w", endpoint, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.YouTubeRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("youtube %s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.YouTubeRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("youtube request rejected")
		return &apperr.TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("youtube %s: decode response: %w", endpoint, err)
	}
	return nil
}

// FetchChannel reads the snippet, statistics and uploads playlist of one
// channel. Statistics the API omits count as zero.
func (c *Client) FetchChannel(ctx context.Context, externalID string) (ChannelInfo, error) {
	var resp channelListResponse
	err := c.get(ctx, "channels", url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {externalID},
	}, &resp)
	if err != nil {
		return ChannelInfo{}, err
	}
	if len(resp.Items) == 0 {
		return ChannelInfo{}, fmt.Errorf("youtube channel %s: %w", externalID, apperr.ErrNotFound)
	}

	item := resp.Items[0]
	info := ChannelInfo{
		ExternalID:        item.ID,
		Name:              item.Snippet.Title,
		ImageURL:          item.Snippet.Thumbnails.Default.URL,
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
		Metrics: model.Metrics{
			Subscribers: parseCount(item.Statistics.SubscriberCount),
			Views:       parseCount(item.Statistics.ViewCount),
			Videos:      parseCount(item.Statistics.VideoCount),
		},
	}
	if info.ExternalID == "" {
		info.ExternalID = externalID
	}
	return info, nil
}

// RecentUploads lists up to limit videos of an uploads playlist, newest first,
// with their view and like counts.
func (c *Client) RecentUploads(ctx context.Context, uploadsPlaylistID string, limit int) ([]model.RecentVideo, error) {
	if uploadsPlaylistID == "" || limit <= 0 {
		return []model.RecentVideo{}, nil
	}

	var playlist playlistItemsResponse
	err := c.get(ctx, "playlistItems", url.Values{
		"part":       {"snippet"},
		"playlistId": {uploadsPlaylistID},
		"maxResults": {strconv.Itoa(limit)},
	}, &playlist)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(playlist.Items))
	for _, item := range playlist.Items {
		if id := item.Snippet.ResourceID.VideoID; id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []model.RecentVideo{}, nil
	}

	var videos videoListResponse
	err = c.get(ctx, "videos", url.Values{
		"part": {"snippet,statistics"},
		"id":   {strings.Join(ids, ",")},
	}, &videos)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.RecentVideo, len(videos.Items))
	for _, v := range videos.Items {
		byID[v.ID] = model.RecentVideo{
			ID:        v.ID,
			Title:     v.Snippet.Title,
			Thumbnail: v.Snippet.Thumbnails.Medium.URL,
			ViewCount: parseCount(v.Statistics.ViewCount),
			LikeCount: parseCount(v.Statistics.LikeCount),
		}
	}

	// keep playlist order
	out := make([]model.RecentVideo, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// parseCount reads the decimal strings the API uses for counters.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
