package model

import "time"

// DefaultCategory is assigned to channels added without an explicit category.
const DefaultCategory = "Default"

// Channel is a tracked YouTube channel.
type Channel struct {
	ID                int64     `json:"id"`
	ExternalID        string    `json:"youtubeChannelId"`
	Name              string    `json:"name"`
	Nickname          string    `json:"nickname"`
	Category          string    `json:"category"`
	ImageURL          string    `json:"imageUrl"`
	UploadsPlaylistID *string   `json:"uploadsPlaylistId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// DisplayName returns the nickname when set, otherwise the channel name.
func (c Channel) DisplayName() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.Name
}

// AddChannelRequest is the API request body for tracking a new channel.
type AddChannelRequest struct {
	ChannelQuery string `json:"channel_query" validate:"required,max=200"`
	Category     string `json:"category,omitempty" validate:"omitempty,max=50"`
	Nickname     string `json:"nickname,omitempty" validate:"omitempty,max=100"`
}

// UpdateChannelRequest is the API request body for retagging a channel.
// Nil fields are left unchanged; an empty category resets to DefaultCategory.
type UpdateChannelRequest struct {
	Nickname *string `json:"nickname,omitempty" validate:"omitempty,max=100"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
}

// ChannelListEntry is one row of GET /api/channels.
type ChannelListEntry struct {
	Channel
	Subscribers int64  `json:"subscribers"`
	Views       int64  `json:"views"`
	Videos      int64  `json:"videos"`
	LastSynced  string `json:"lastSynced,omitempty"`
}
