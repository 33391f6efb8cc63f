package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrPagination marks a failed history page.
	ErrPagination = errors.New("activity history pagination failed")

	// ErrInvalidRequest is returned for a request missing its identifiers.
	ErrInvalidRequest = errors.New("invalid activity request")
)

// PaginationError reports which page could not be fetched. The page
// boundary cannot be trusted afterwards, so the whole call fails.
type PaginationError struct {
	Page int
	Err  error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("activity history page %d: %v", e.Page, e.Err)
}

func (e *PaginationError) Unwrap() error { return e.Err }

// Is matches ErrPagination.
func (e *PaginationError) Is(target error) bool { return target == ErrPagination }
