package service

import (
	"time"

	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFanoutWorkers sets the number of detail-report workers.
func WithFanoutWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanoutWorkers = n
		}
	}
}

// WithQueueCapacity sets the executor queue capacity.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithPageSize sets the activity history page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRecentCount sets how many activities are returned when the caller
// does not ask for a count.
func WithRecentCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentCount = n
		}
	}
}

// WithCutoffYear drops activity reports dated before year.
func WithCutoffYear(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.cutoffYear = year
		}
	}
}

// WithLoader sets the reference table loader used by Start and ReloadTables.
func WithLoader(l *manifest.Loader) Option {
	return func(s *Service) {
		s.loader = l
	}
}

// WithTables publishes already-built tables, skipping the startup load.
func WithTables(t *manifest.ReferenceTables) Option {
	return func(s *Service) {
		if t != nil {
			s.tables.Store(t)
		}
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
