// Package repository persists linked accounts and their upstream tokens.
package repository

import (
	"context"
	"fmt"
	"time"
)

// Account is a user linked to one platform membership.
type Account struct {
	UserID          string    `json:"userId"`
	PlatformID      string    `json:"platformId"`
	PlatformType    int       `json:"platformType"`
	DisplayName     string    `json:"displayName"`
	AccessToken     string    `json:"accessToken"`
	RefreshToken    string    `json:"refreshToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero expiry never expires.
func (a Account) Expired(now time.Time) bool {
	return !a.AccessExpiresAt.IsZero() && !now.Before(a.AccessExpiresAt)
}

func (a Account) validate() error {
	if a.UserID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidAccount)
	}
	return nil
}

// Store provides read/write access to linked accounts.
type Store interface {
	// Save inserts or replaces the account keyed by its UserID.
	Save(ctx context.Context, a Account) error

	// Get returns ErrNotFound if the user is unknown.
	Get(ctx context.Context, userID string) (Account, error)

	// UpdateTokens replaces the tokens of an existing account.
	UpdateTokens(ctx context.Context, userID, access, refresh string, expiresAt time.Time) error

	Delete(ctx context.Context, userID string) error

	// Count returns the number of stored accounts.
	Count(ctx context.Context) int
}
