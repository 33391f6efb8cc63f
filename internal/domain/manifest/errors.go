package manifest

import (
	"errors"
	"fmt"
)

// Sentinel kinds for reference table errors.
var (
	// ErrFatalLoad matches every FatalLoadError.
	ErrFatalLoad = errors.New("reference tables cannot be loaded")
	// ErrMissingPath means the manifest index has no content path for a table.
	ErrMissingPath = errors.New("manifest has no content path")
	// ErrCacheMiss is returned by a Cache holding no index for a locale.
	ErrCacheMiss = errors.New("manifest index not cached")
)

// FatalLoadError stops the process from serving: either the manifest index or
// the bucket table could not be loaded.
type FatalLoadError struct {
	Table string
	Err   error
}

func (e *FatalLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *FatalLoadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFatalLoad) match.
func (e *FatalLoadError) Is(target error) bool { return target == ErrFatalLoad }
