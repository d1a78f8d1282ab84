package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/cross"
	"TradeIdeas/internal/rebase"
	"TradeIdeas/internal/scorer"
	"TradeIdeas/internal/server"
	"TradeIdeas/internal/telemetry"
)

// Config holds all application configuration.
type Config struct {
	HTTP struct {
		Timeout           time.Duration `yaml:"timeout"`
		UserAgent         string        `yaml:"user_agent"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		MaxRetries        int           `yaml:"max_retries"`
		Backoff           time.Duration `yaml:"backoff"`
		BreakerFailures   uint32        `yaml:"breaker_failures"`
		BreakerCooldown   time.Duration `yaml:"breaker_cooldown"`
		YahooBaseURL      string        `yaml:"yahoo_base_url"`
	} `yaml:"http"`
	Cache struct {
		Backend    string        `yaml:"backend"`
		TTL        time.Duration `yaml:"ttl"`
		SQLitePath string        `yaml:"sqlite_path"`
		RedisAddr  string        `yaml:"redis_addr"`
		RedisDB    int           `yaml:"redis_db"`
		RedisPass  string        `yaml:"redis_password"`
		Prefix     string        `yaml:"prefix"`
	} `yaml:"cache"`
	Cross       cross.Config  `yaml:"cross"`
	Scoring     scorer.Config `yaml:"scoring"`
	Performance rebase.Config `yaml:"performance"`
	Analysis    struct {
		MaxCandidates  int    `yaml:"max_candidates"`
		UniverseIndex  string `yaml:"universe_index"`
		MemberIndex    string `yaml:"member_index"`
		SampleFallback bool   `yaml:"sample_fallback"`
	} `yaml:"analysis"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Schedule struct {
		CrossCron     string   `yaml:"cross_cron"`
		WarmupCron    string   `yaml:"warmup_cron"`
		Timezone      string   `yaml:"timezone"`
		Index         string   `yaml:"index"`
		LookbackDays  int      `yaml:"lookback_days"`
		WarmIndices   []string `yaml:"warm_indices"`
		TopCandidates int      `yaml:"top_candidates"`
		NotifyEmpty   bool     `yaml:"notify_empty"`
		RunOnStart    bool     `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Server  server.Config `yaml:"server"`
	Log     struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Tracing telemetry.Options `yaml:"tracing"`
	Proxy   string            `yaml:"proxy"`
}

// newDefaults seeds the sections whose zero values are meaningful, so a partial
// YAML section only overrides the keys it names.
func newDefaults() *Config {
	cfg := &Config{}
	cfg.Cross = cross.DefaultConfig()
	cfg.Scoring = scorer.DefaultConfig()
	cfg.Performance = rebase.DefaultConfig()
	cfg.Server = server.DefaultConfig()
	cfg.HTTP.MaxRetries = -1
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	integer := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	boolean("TELEGRAM_ENABLED", &cfg.Telegram.Enabled)
	str("HTTPS_PROXY", &cfg.Proxy)
	str("YAHOO_BASE_URL", &cfg.HTTP.YahooBaseURL)
	str("CACHE_BACKEND", &cfg.Cache.Backend)
	str("SQLITE_PATH", &cfg.Cache.SQLitePath)
	str("REDIS_ADDR", &cfg.Cache.RedisAddr)
	str("REDIS_PASSWORD", &cfg.Cache.RedisPass)
	str("CRON_CROSS_SCAN", &cfg.Schedule.CrossCron)
	str("SCHEDULE_TIMEZONE", &cfg.Schedule.Timezone)
	boolean("RUN_ON_START", &cfg.Schedule.RunOnStart)
	boolean("SAMPLE_FALLBACK", &cfg.Analysis.SampleFallback)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	boolean("LOG_TRACING_ENABLED", &cfg.Tracing.Enabled)
	integer("HTTP_PORT", &cfg.Server.Port)
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	if cfg.HTTP.RequestsPerSecond == 0 {
		cfg.HTTP.RequestsPerSecond = 2
	}
	if cfg.HTTP.Burst == 0 {
		cfg.HTTP.Burst = 4
	}
	if cfg.HTTP.MaxRetries < 0 {
		cfg.HTTP.MaxRetries = 2
	}
	if cfg.HTTP.Backoff == 0 {
		cfg.HTTP.Backoff = time.Second
	}
	if cfg.HTTP.BreakerFailures == 0 {
		cfg.HTTP.BreakerFailures = 5
	}
	if cfg.HTTP.BreakerCooldown == 0 {
		cfg.HTTP.BreakerCooldown = time.Minute
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "data/tradeideas_cache.db"
	}
	if cfg.Analysis.MaxCandidates == 0 {
		cfg.Analysis.MaxCandidates = 30
	}
	if cfg.Analysis.UniverseIndex == "" {
		cfg.Analysis.UniverseIndex = constituents.Russell1000
	}
	if cfg.Analysis.MemberIndex == "" {
		cfg.Analysis.MemberIndex = constituents.SP500
	}
	if cfg.Schedule.CrossCron == "" {
		cfg.Schedule.CrossCron = "0 30 17 * * 1-5"
	}
	if cfg.Schedule.WarmupCron == "" {
		cfg.Schedule.WarmupCron = "0 0 * * * *"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "America/New_York"
	}
	if cfg.Schedule.Index == "" {
		cfg.Schedule.Index = constituents.SP500
	}
	if cfg.Schedule.LookbackDays == 0 {
		cfg.Schedule.LookbackDays = analysis.DefaultLookbackDays
	}
	if len(cfg.Schedule.WarmIndices) == 0 {
		cfg.Schedule.WarmIndices = []string{constituents.SP500, constituents.Russell1000}
	}
	if cfg.Schedule.TopCandidates == 0 {
		cfg.Schedule.TopCandidates = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "none":
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required")
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, sqlite, redis, none", c.Cache.Backend)
	}
	if c.Cross.ShortWindow <= 0 || c.Cross.LongWindow <= c.Cross.ShortWindow {
		return fmt.Errorf("cross windows must satisfy 0 < short_window < long_window")
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Cross.RecencyWindowDays < 0 {
		return fmt.Errorf("cross.recency_window_days must not be negative")
	}
	if err := c.Performance.Validate(); err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	if _, err := analysis.NormalizeLookback(c.Schedule.LookbackDays); err != nil {
		return fmt.Errorf("schedule.lookback_days: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required")
		}
	}
	return nil
}
