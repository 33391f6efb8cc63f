package activity

import "github.com/vigilance/vanguard/pkg/logger"

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPageSize sets the history page size. Values above MaxPageSize are clamped.
func WithPageSize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.pageSize = min(n, MaxPageSize)
		}
	}
}

// WithCutoffYear drops reports dated before year.
func WithCutoffYear(year int) Option {
	return func(a *Aggregator) {
		a.cutoffYear = year
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
