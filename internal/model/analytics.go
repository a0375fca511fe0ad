package model

// SummaryCard is one KPI tile on the dashboard.
type SummaryCard struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Value      string `json:"value"`
	Change     string `json:"change"`
	IsPositive bool   `json:"isPositive"`
}

// ChartData is a pair of aligned series keyed by label.
type ChartData struct {
	Labels      []string `json:"labels"`
	Subscribers []int64  `json:"subscribers"`
	Views       []int64  `json:"views"`
}

// ChannelDashboardRow is one channel on the dashboard: identity, current
// metrics and deltas keyed by period name.
type ChannelDashboardRow struct {
	ID          int64            `json:"id"`
	ExternalID  string           `json:"youtubeChannelId"`
	Name        string           `json:"name"`
	Nickname    string           `json:"nickname"`
	Category    string           `json:"category"`
	ImageURL    string           `json:"imageUrl"`
	Subscribers int64            `json:"subscribers"`
	Views       int64            `json:"views"`
	Videos      int64            `json:"videos"`
	Deltas      map[string]Delta `json:"deltas"`
}

// DashboardResponse is the API response for GET /api/dashboard.
type DashboardResponse struct {
	Period    string                `json:"period"`
	Summary   []SummaryCard         `json:"summary"`
	ChartData ChartData             `json:"chart_data"`
	Channels  []ChannelDashboardRow `json:"channels"`
}

// ChannelKPI is the headline block of the channel detail page.
type ChannelKPI struct {
	SubsTotal    int64 `json:"subs_total"`
	ViewsTotal   int64 `json:"views_total"`
	VideosTotal  int64 `json:"videos_total"`
	SubsChange   int64 `json:"subs_change"`
	ViewsChange  int64 `json:"views_change"`
	VideosChange int64 `json:"videos_change"`
}

// RecentVideo is an upload listed on the channel detail page.
type RecentVideo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	ViewCount int64  `json:"view_count"`
	LikeCount int64  `json:"like_count"`
}

// ChannelDetailResponse is the API response for GET /api/channels/:id.
type ChannelDetailResponse struct {
	Channel      Channel       `json:"channel"`
	Period       string        `json:"period"`
	KPI          ChannelKPI    `json:"kpi"`
	ChartData    ChartData     `json:"chart_data"`
	RecentVideos []RecentVideo `json:"recent_videos"`
}

// StatusResponse is the API response for GET /api/status.
type StatusResponse struct {
	Configured bool        `json:"configured"`
	Channels   int         `json:"channels"`
	Snapshots  int64       `json:"snapshots"`
	LastSync   *SyncReport `json:"lastSync,omitempty"`
}
