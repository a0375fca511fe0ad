package model

import "time"

// SyncStatus is the terminal (or current) state of a sync run.
type SyncStatus string

const (
	SyncIdle                SyncStatus = "idle"
	SyncRunning             SyncStatus = "running"
	SyncCompleted           SyncStatus = "completed"
	SyncCompletedWithErrors SyncStatus = "completed_with_errors"
	SyncNotConfigured       SyncStatus = "not_configured"
	SyncFailed              SyncStatus = "failed"
)

// SyncFailure records one channel that could not be fetched during a run.
type SyncFailure struct {
	ChannelID  int64  `json:"channelId"`
	ExternalID string `json:"youtubeChannelId"`
	Reason     string `json:"reason"`
}

// SyncReport summarizes one run of the sync job.
type SyncReport struct {
	Status     SyncStatus    `json:"status"`
	Day        string        `json:"day"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Channels   int           `json:"channels"`
	Written    int           `json:"written"`
	Failures   []SyncFailure `json:"failures"`
	Error      string        `json:"error,omitempty"`
}
