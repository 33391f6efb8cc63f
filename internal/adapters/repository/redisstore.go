package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "account:"
	indexKey         = "accounts"
)

// RedisStore keeps one JSON value per account plus a set of known user ids.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, a Account) error {
	if err := a.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(a.UserID), data, s.ttl)
	pipe.SAdd(ctx, s.prefix+indexKey, a.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save account %s: %w", a.UserID, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, userID string) (Account, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("get account %s: %w", userID, err)
	}
	var a Account
	if err := json.Unmarshal(data, &a); err != nil {
		return Account{}, fmt.Errorf("decode account %s: %w", userID, err)
	}
	return a, nil
}

// UpdateTokens implements Store.
func (s *RedisStore) UpdateTokens(ctx context.Context, userID, access, refresh string, expiresAt time.Time) error {
	a, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	a.AccessToken, a.RefreshToken, a.AccessExpiresAt = access, refresh, expiresAt
	return s.Save(ctx, a)
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.SRem(ctx, s.prefix+indexKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete account %s: %w", userID, err)
	}
	return nil
}

// Count implements Store. Errors count as zero.
func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.SCard(ctx, s.prefix+indexKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}
