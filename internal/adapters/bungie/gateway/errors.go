package gateway

import (
	"errors"
	"fmt"
)

// Sentinel kinds for gateway errors.
var (
	// ErrGateway matches every TransportError and UpstreamError.
	ErrGateway = errors.New("gateway request failed")
	// ErrStaleAuth means the access token or authorization code was rejected.
	ErrStaleAuth = errors.New("stale authorization")
	// ErrDecode means a 2xx body could not be decoded.
	ErrDecode = errors.New("decode upstream body")
)

// TransportError is a fault below HTTP: timeout, DNS, connection reset,
// or the caller's context ending.
type TransportError struct {
	Label string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Label, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGateway) match.
func (e *TransportError) Is(target error) bool { return target == ErrGateway }

// UpstreamError is a non-success reply from the upstream service.
type UpstreamError struct {
	Label       string
	Status      int
	ErrorCode   int
	ErrorStatus string
	Message     string

	stale bool
}

func (e *UpstreamError) Error() string {
	if e.ErrorStatus != "" {
		return fmt.Sprintf("%s: upstream %d %s: %s", e.Label, e.Status, e.ErrorStatus, e.Message)
	}
	return fmt.Sprintf("%s: upstream %d: %s", e.Label, e.Status, e.Message)
}

// Is matches ErrGateway always, and ErrStaleAuth when the reply rejected
// the caller's credentials.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrGateway:
		return true
	case ErrStaleAuth:
		return e.stale
	}
	return false
}

// IsStatus reports whether err wraps an UpstreamError with the given status.
func IsStatus(err error, status int) bool {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Status == status
	}
	return false
}
