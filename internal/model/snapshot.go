package model

import "time"

// DateLayout is the wire and storage format of a snapshot date.
const DateLayout = "2006-01-02"

// Metrics is one reading of a channel's public counters.
type Metrics struct {
	Subscribers int64 `json:"subscribers"`
	Views       int64 `json:"views"`
	Videos      int64 `json:"videos"`
}

// Snapshot is a channel's metric reading for one calendar day. Date is always
// midnight UTC of that day.
type Snapshot struct {
	ChannelID int64     `json:"channelId"`
	Date      time.Time `json:"date"`
	Metrics
}

// SnapshotWrite is one pending upsert in a batched sync commit.
type SnapshotWrite struct {
	ChannelID int64
	Metrics   Metrics
}

// RollupBucket is the cross-channel sum of all snapshots dated exactly Date.
type RollupBucket struct {
	Date        time.Time `json:"date"`
	Subscribers int64     `json:"subscribers"`
	Views       int64     `json:"views"`
	Videos      int64     `json:"videos"`
}

// Delta is the signed change of each metric across a period.
type Delta struct {
	Subscribers int64 `json:"subscribers"`
	Views       int64 `json:"views"`
	Videos      int64 `json:"videos"`
}
