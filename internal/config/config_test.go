package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "hierarchy"), cfg.HierarchyDir())
	assert.Equal(t, filepath.Join("data", "odds"), cfg.OddsDir())
	assert.Equal(t, []string{"prizepicks-nfl-today.json", "prizepicks-nfl-tomorrow.json", "prizepicks-nfl.json"}, cfg.DataSources)
	assert.Equal(t, "America/Chicago", cfg.SourceTimezone)
	assert.Equal(t, 8, cfg.PlayerIDHashLength)
	assert.Equal(t, "5 0 * * *", cfg.RotationCron)
	assert.Empty(t, cfg.Sports)
	assert.Len(t, cfg.OddsMarkets, 6)
	assert.Equal(t, 200, cfg.ActionSliceLimit)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/mirror")
	t.Setenv("DATA_SOURCES", "a.json,b.json")
	t.Setenv("SPORTS", "NFL,NBA")
	t.Setenv("ODDS_OUT_DIR", "/srv/odds")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/mirror/hierarchy", cfg.HierarchyDir())
	assert.Equal(t, "/srv/odds", cfg.OddsDir())
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.DataSources)
	assert.Equal(t, []string{"NFL", "NBA"}, cfg.Sports)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
}

func TestLoad_SourcesManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	manifest := "base_url: /var/feeds\nsources:\n  - today.json\n  - tomorrow.json\n"
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	t.Setenv("SOURCES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/feeds", cfg.DataBaseURL)
	assert.Equal(t, []string{"today.json", "tomorrow.json"}, cfg.DataSources)
}

func TestLoad_MissingManifest(t *testing.T) {
	t.Setenv("SOURCES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.SourceTimezone = "Mars/Olympus" }},
		{"bad rotation cron", func(c *Config) { c.RotationCron = "every day" }},
		{"bad refresh cron", func(c *Config) { c.RefreshCron = "* *" }},
		{"empty rotation cron", func(c *Config) { c.RotationCron = "" }},
		{"hash too short", func(c *Config) { c.PlayerIDHashLength = 2 }},
		{"hash too long", func(c *Config) { c.PlayerIDHashLength = 41 }},
		{"no sources", func(c *Config) { c.DataSources = nil }},
		{"negative retries", func(c *Config) { c.FeedRetries = -1 }},
		{"zero action limit", func(c *Config) { c.ActionSliceLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
