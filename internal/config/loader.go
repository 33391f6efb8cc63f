package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VANGUARD_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VANGUARD_CONFIG is set
//  3. env (prefix VANGUARD_), including values from a .env file
//
// The .env file (path in VANGUARD_ENV_FILE, default ".env") never overrides
// variables already present in the process environment.
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// VANGUARD_THROTTLE_CAP -> throttle_cap
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.APIKey) == "":
		return fmt.Errorf("%w: api_key must not be empty", ErrInvalidConfig)
	case c.ThrottleCap <= 0:
		return fmt.Errorf("%w: throttle_cap must be positive", ErrInvalidConfig)
	case c.ThrottleWindowMS <= 0:
		return fmt.Errorf("%w: throttle_window_ms must be positive", ErrInvalidConfig)
	case c.ThrottleMode != "window" && c.ThrottleMode != "token_bucket":
		return fmt.Errorf("%w: unknown throttle_mode %q", ErrInvalidConfig, c.ThrottleMode)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

func loadDotEnv() error {
	path := os.Getenv(envPrefix + "ENV_FILE")
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
