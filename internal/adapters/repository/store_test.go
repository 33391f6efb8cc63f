package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func sampleAccount(id string) Account {
	return Account{
		UserID:       id,
		PlatformID:   "4611686018400000001",
		PlatformType: 3,
		DisplayName:  "Guardian#1234",
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
	}
}

// exerciseStore runs the behavior every Store must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a := sampleAccount("u1")
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, a.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != a {
		t.Errorf("expected %+v, got %+v", a, got)
	}

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.UpdateTokens(ctx, a.UserID, "new-access", "new-refresh", exp); err != nil {
		t.Fatalf("update tokens: %v", err)
	}
	got, _ = store.Get(ctx, a.UserID)
	if got.AccessToken != "new-access" || got.RefreshToken != "new-refresh" || !got.AccessExpiresAt.Equal(exp) {
		t.Errorf("tokens not updated: %+v", got)
	}
	if got.PlatformID != a.PlatformID {
		t.Errorf("update tokens changed platform id: %+v", got)
	}

	if err := store.UpdateTokens(ctx, "missing", "a", "r", exp); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating unknown user, got %v", err)
	}

	if err := store.Save(ctx, Account{}); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("expected ErrInvalidAccount, got %v", err)
	}

	before := store.Count(ctx)
	if err := store.Delete(ctx, a.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, a.UserID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if after := store.Count(ctx); after != before-1 {
		t.Errorf("expected count %d after delete, got %d", before-1, after)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Save(ctx, sampleAccount(fmt.Sprintf("user-%d", i%10))); err != nil {
				t.Errorf("save: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if n := store.Count(ctx); n != 10 {
		t.Errorf("expected 10 accounts, got %d", n)
	}
}

func TestAccountExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"zero never expires", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Account{AccessExpiresAt: tc.exp}
			if got := a.Expired(now); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("VANGUARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VANGUARD_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer func() { _ = client.Close() }()

	prefix := fmt.Sprintf("test-%d:", time.Now().UnixNano())
	store := NewRedisStore(client, WithKeyPrefix(prefix), WithTTL(time.Minute))
	defer func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}()

	exerciseStore(t, store)

	if err := store.Save(ctx, sampleAccount("ttl")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := client.TTL(ctx, prefix+"ttl").Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected ttl within a minute, got %v", ttl)
	}
}
