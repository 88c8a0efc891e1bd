package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTitle is returned for empty or blank titles. No request is made.
	ErrInvalidTitle = errors.New("title is required")
	// ErrNotFoundInLookup means the service answered but knows no such title.
	ErrNotFoundInLookup = errors.New("movie not found in metadata service")
	// ErrLookupFailed matches every *LookupFailedError.
	ErrLookupFailed = errors.New("metadata lookup failed")
)

// LookupFailedError carries the title and the underlying cause of a
// transport, status or decoding failure.
type LookupFailedError struct {
	Title string
	Err   error
}

func (e *LookupFailedError) Error() string {
	return fmt.Sprintf("lookup %q: %v", e.Title, e.Err)
}

func (e *LookupFailedError) Unwrap() error { return e.Err }

func (e *LookupFailedError) Is(target error) bool { return target == ErrLookupFailed }

func failed(title string, err error) error {
	return &LookupFailedError{Title: title, Err: err}
}
