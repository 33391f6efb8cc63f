package repository

import (
	"context"
	"sync"
	"time"

	"github.com/vigilance/vanguard/pkg/metrics"
)

// MemoryStore keeps accounts in a map. Used when no Redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, a Account) error {
	if err := a.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts[a.UserID] = a
	n := len(s.accounts)
	s.mu.Unlock()
	metrics.UpdateAccountsStored(n)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// UpdateTokens implements Store.
func (s *MemoryStore) UpdateTokens(_ context.Context, userID, access, refresh string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	a.AccessToken, a.RefreshToken, a.AccessExpiresAt = access, refresh, expiresAt
	s.accounts[userID] = a
	return nil
}

// Delete implements Store. Deleting an unknown user is not an error.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.accounts, userID)
	n := len(s.accounts)
	s.mu.Unlock()
	metrics.UpdateAccountsStored(n)
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
