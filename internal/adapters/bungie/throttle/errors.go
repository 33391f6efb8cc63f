package throttle

import "errors"

// Sentinel kinds for throttle errors.
var (
	ErrUnknownMode = errors.New("unknown throttle mode")
)
