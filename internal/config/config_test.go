package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Cross.ShortWindow)
	assert.Equal(t, 200, cfg.Cross.LongWindow)
	assert.Equal(t, 22.7e9, cfg.Scoring.MinMarketCap)
	assert.Equal(t, 90, cfg.Performance.WindowDays)
	assert.Equal(t, 2, cfg.HTTP.MaxRetries)
	assert.Equal(t, 180, cfg.Schedule.LookbackDays)
	assert.Equal(t, 30, cfg.Analysis.MaxCandidates)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Telegram.Enabled)
}

func TestLoad_PartialSectionsKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  timeout: 5s
  max_retries: 0
cache:
  backend: sqlite
  sqlite_path: /tmp/c.db
cross:
  recency_window_days: 14
scoring:
  min_float_pct: 60
performance:
  window_days: 30
schedule:
  lookback_days: 90
  warm_indices: [ftse100]
server:
  port: 9090
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 0, cfg.HTTP.MaxRetries, "explicit zero retries survive defaults")
	assert.Equal(t, 14, cfg.Cross.RecencyWindowDays)
	assert.Equal(t, 200, cfg.Cross.LongWindow)
	assert.Equal(t, 60.0, cfg.Scoring.MinFloatPct)
	assert.Equal(t, 22.7e9, cfg.Scoring.MinMarketCap)
	assert.Equal(t, 30, cfg.Performance.WindowDays)
	assert.Equal(t, 5, cfg.Performance.AnchorToleranceDays)
	assert.Equal(t, []string{"ftse100"}, cfg.Schedule.WarmIndices)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("SAMPLE_FALLBACK", "1")

	cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: from-file\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "tok", cfg.Telegram.BotToken)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Analysis.SampleFallback)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "cache: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Cache.Backend = "mongo" }, "cache.backend"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "cache.redis_addr is required"},
		{"windows", func(c *Config) { c.Cross.LongWindow = 20 }, "cross windows"},
		{"scoring", func(c *Config) { c.Scoring.MinFloatPct = 150 }, "scoring"},
		{"performance", func(c *Config) { c.Performance.WindowDays = 0 }, "performance: window_days"},
		{"window inside tolerance", func(c *Config) { c.Performance.WindowDays = 3 }, "must be at least anchor_tolerance_days"},
		{"negative recency", func(c *Config) { c.Cross.RecencyWindowDays = -1 }, "cross.recency_window_days"},
		{"lookback", func(c *Config) { c.Schedule.LookbackDays = 400 }, "schedule.lookback_days"},
		{"timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "schedule.timezone"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"telegram token", func(c *Config) { c.Telegram.Enabled = true }, "telegram.bot_token is required"},
		{"telegram chat", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "x" }, "telegram.chat_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
