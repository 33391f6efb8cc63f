package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNoMembership = errors.New("no platform membership linked")
	ErrMissingCode  = errors.New("authorization code is required")
)
