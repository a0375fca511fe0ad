package db

// Snapshots reference channels without ON DELETE CASCADE: channel removal
// deletes snapshots first, then the channel, in one transaction.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id                  BIGSERIAL PRIMARY KEY,
		external_id         VARCHAR(64)  NOT NULL UNIQUE,
		name                VARCHAR(200) NOT NULL,
		nickname            VARCHAR(100) NOT NULL DEFAULT '',
		category            VARCHAR(50)  NOT NULL DEFAULT 'Default',
		image_url           TEXT         NOT NULL DEFAULT '',
		uploads_playlist_id VARCHAR(64),
		created_at          TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS channel_snapshots (
		channel_id       BIGINT NOT NULL REFERENCES channels(id),
		date             DATE   NOT NULL,
		subscriber_count BIGINT NOT NULL CHECK (subscriber_count >= 0),
		view_count       BIGINT NOT NULL CHECK (view_count >= 0),
		video_count      BIGINT NOT NULL CHECK (video_count >= 0),
		PRIMARY KEY (channel_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_channel_snapshots_date ON channel_snapshots(date)`,
	`CREATE INDEX IF NOT EXISTS idx_channels_category ON channels(category)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id         TEXT NOT NULL UNIQUE,
		name                TEXT NOT NULL,
		nickname            TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL DEFAULT 'Default',
		image_url           TEXT NOT NULL DEFAULT '',
		uploads_playlist_id TEXT,
		created_at          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS channel_snapshots (
		channel_id       INTEGER NOT NULL REFERENCES channels(id),
		date             TEXT    NOT NULL,
		subscriber_count INTEGER NOT NULL CHECK (subscriber_count >= 0),
		view_count       INTEGER NOT NULL CHECK (view_count >= 0),
		video_count      INTEGER NOT NULL CHECK (video_count >= 0),
		PRIMARY KEY (channel_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_channel_snapshots_date ON channel_snapshots(date)`,
	`CREATE INDEX IF NOT EXISTS idx_channels_category ON channels(category)`,
}
