package repository

import "errors"

// Sentinel kinds for account store errors.
var (
	ErrNotFound       = errors.New("account not found")
	ErrInvalidAccount = errors.New("invalid account")
)
