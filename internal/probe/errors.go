package probe

import (
	"errors"
	"fmt"
)

// Error constants.
var (
	ErrNoUser    = errors.New("no user id: pass -user or -code")
	ErrUnhealthy = errors.New("service unhealthy")
)

// HTTPError is a non-2xx response from the service.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err wraps an HTTPError with the given status.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
