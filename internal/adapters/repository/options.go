package repository

import "time"

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires idle accounts. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}
