package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "UTC", cfg.Sync.Timezone)
	assert.Equal(t, 15*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Empty(t, cfg.YouTube.APIKey)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("YOUTUBE_API_KEY", "  key-123 ")
	t.Setenv("YOUTUBE_TIMEOUT", "3s")
	t.Setenv("SYNC_SCHEDULE", "")
	t.Setenv("SYNC_TIMEZONE", "Europe/Istanbul")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, "key-123", cfg.YouTube.APIKey)
	assert.Equal(t, 3*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, "Europe/Istanbul", cfg.Sync.Timezone)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
youtube:
  requests_per_second: 2.5
sync:
  on_startup: true
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Server.Port, "env wins over file")
	assert.Equal(t, 2.5, cfg.YouTube.RequestsPerSecond)
	assert.True(t, cfg.Sync.OnStartup)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without url", func(c *Config) { c.Database.URL = "" }},
		{"sqlite without path", func(c *Config) { c.Database.Driver = DriverSQLite; c.Database.SQLitePath = "" }},
		{"bad timezone", func(c *Config) { c.Sync.Timezone = "Mars/Olympus" }},
		{"zero rate", func(c *Config) { c.YouTube.RequestsPerSecond = 0 }},
		{"zero timeout", func(c *Config) { c.YouTube.Timeout = 0 }},
		{"too many uploads", func(c *Config) { c.YouTube.RecentUploads = 51 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, defaults().Validate())
}
