// Package repository defines the data access contract shared by every
// backing store together with the error values it reports. These
// sentinel values allow higher layers such as handlers to distinguish
// between different failure scenarios without knowing which store is
// in use. For example, ErrForbidden indicates that the caller attempted
// to change a resource owned by someone else, while ErrDuplicateMovie
// signals that the external identifier is already taken.
package repository

import "errors"

// ErrNotFound is the parent of every "record absent" error. Use
// errors.Is(err, ErrNotFound) to match any of them.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound   = notFound("user not found")
	ErrMovieNotFound  = notFound("movie not found")
	ErrReviewNotFound = notFound("review not found")
)

// ErrInvalidInput is returned when a required field is missing or out of
// range (empty username, missing title or year, review text too long).
// Handlers should translate this into an HTTP 400 response.
var ErrInvalidInput = errors.New("invalid input")

// ErrForbidden is returned when the caller attempts an operation on a
// resource written by another user. Handlers should translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicateMovie is returned when a movie with the same external
// identifier already exists in the store. Handlers should translate this
// into an HTTP 409 response.
var ErrDuplicateMovie = errors.New("movie already exists")

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
