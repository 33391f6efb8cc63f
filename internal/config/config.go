// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config filled with defaults.
// - Load layers defaults, an optional YAML file and VANGUARD_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// APIKey is the static service key sent as X-API-Key on every upstream call.
	APIKey string `koanf:"api_key"`

	// ClientID and ClientSecret authenticate the OAuth2 code exchange.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// BaseURL is the upstream platform root; StatsBaseURL serves detail reports.
	BaseURL      string `koanf:"base_url"`
	StatsBaseURL string `koanf:"stats_base_url"`

	// Locale picks the manifest content path language.
	Locale string `koanf:"locale"`

	// RequestTimeoutMS bounds every upstream call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// ThrottleMode is "window" (fixed window) or "token_bucket".
	ThrottleMode     string `koanf:"throttle_mode"`
	ThrottleCap      int    `koanf:"throttle_cap"`
	ThrottleWindowMS int    `koanf:"throttle_window_ms"`

	// FanoutWorkers sizes the detail-report executor.
	FanoutWorkers int `koanf:"fanout_workers"`

	// PageSize is the activity history page size; RecentCount is the default
	// number of recent activities returned by the HTTP surface.
	PageSize    int `koanf:"page_size"`
	RecentCount int `koanf:"recent_count"`

	// CutoffYear drops activity reports dated before it.
	CutoffYear int `koanf:"cutoff_year"`

	// RedisAddr enables the Redis account store and manifest cache when set.
	RedisAddr        string `koanf:"redis_addr"`
	RedisPassword    string `koanf:"redis_password"`
	RedisDB          int    `koanf:"redis_db"`
	ManifestCacheTTL int    `koanf:"manifest_cache_ttl_s"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":3000",
		BaseURL:          "https://www.bungie.net",
		StatsBaseURL:     "https://stats.bungie.net",
		Locale:           "en",
		RequestTimeoutMS: 15_000,
		ThrottleMode:     "window",
		ThrottleCap:      18,
		ThrottleWindowMS: 1_500,
		FanoutWorkers:    8,
		PageSize:         250,
		RecentCount:      30,
		CutoffYear:       2017,
		ManifestCacheTTL: 3_600,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ThrottleWindow returns ThrottleWindowMS as a duration.
func (c *Config) ThrottleWindow() time.Duration {
	return time.Duration(c.ThrottleWindowMS) * time.Millisecond
}

// ManifestCacheTTLDuration returns ManifestCacheTTL as a duration.
func (c *Config) ManifestCacheTTLDuration() time.Duration {
	return time.Duration(c.ManifestCacheTTL) * time.Second
}
