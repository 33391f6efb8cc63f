package manifest

import (
	"time"

	"github.com/vigilance/vanguard/pkg/logger"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLocale selects the content locale, "en" by default.
func WithLocale(locale string) Option {
	return func(l *Loader) {
		if locale != "" {
			l.locale = locale
		}
	}
}

// WithCache stores the manifest index between process starts.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(l *Loader) {
		l.cache = c
		if ttl > 0 {
			l.cacheTTL = ttl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}
