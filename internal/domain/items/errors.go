package items

import "errors"

// ErrUnknownLocation is returned by ParseLocation.
var ErrUnknownLocation = errors.New("unknown item location")
