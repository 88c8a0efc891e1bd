package repository

import (
	"context"

	"github.com/iliyamo/movieweb/internal/model"
)

// Store is the capability set every backing store implements with the
// same observable behavior. Two implementations exist:
//
//   - sqlstore.Store keeps users, movies and reviews in MySQL tables and
//     runs multi-statement deletes inside a transaction.
//   - filestore.Store keeps users with embedded movie lists in one JSON
//     document and rewrites the whole document after each mutation.
//
// Movie keys differ per store. The relational store identifies a movie
// by its decimal movie_id, the flat-file store by the external ImdbID.
// AddMovieToUser returns the key callers must pass back to GetMovie,
// UpdateMovie and DeleteMovie.
type Store interface {
	// ListUsers returns all users ordered by id.
	ListUsers(ctx context.Context) ([]model.UserSummary, error)
	// GetUserMovies returns the user's movies, an empty slice when the
	// user has none, or ErrUserNotFound.
	GetUserMovies(ctx context.Context, userID uint64) ([]model.Movie, error)
	// GetUserName returns the username or ErrUserNotFound.
	GetUserName(ctx context.Context, userID uint64) (string, error)
	// AddUser creates a user and returns its fresh id.
	AddUser(ctx context.Context, username string) (uint64, error)
	// DeleteUser removes the user and all of its movies. Deleting an
	// absent user is a no-op.
	DeleteUser(ctx context.Context, userID uint64) error
	// AddMovieToUser stores a movie for the user and returns its key.
	AddMovieToUser(ctx context.Context, userID uint64, in model.MovieInput) (string, error)
	// GetMovie returns the movie when it exists and belongs to userID,
	// otherwise ErrMovieNotFound.
	GetMovie(ctx context.Context, userID uint64, movieKey string) (model.Movie, error)
	// UpdateMovie changes title and rating of a movie owned by userID.
	UpdateMovie(ctx context.Context, userID uint64, movieKey, newTitle, newRating string) (UpdateResult, error)
	// DeleteMovie removes a movie owned by userID. Absent or foreign
	// movies are left alone and no error is returned.
	DeleteMovie(ctx context.Context, userID uint64, movieKey string) error
}

// ReviewStore is implemented by stores that keep movie reviews. The
// flat-file store has no review concept.
type ReviewStore interface {
	AddReview(ctx context.Context, userID, movieID uint64, text string, rating int) (uint64, error)
	GetReviewsForMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
	UpdateReview(ctx context.Context, userID, movieID, reviewID uint64, text string, rating int) error
	DeleteReview(ctx context.Context, userID, movieID, reviewID uint64) error
}

// UpdateResult is the outcome of UpdateMovie.
type UpdateResult int

const (
	UpdateOK UpdateResult = iota
	UpdateNotFound
	UpdateUnauthorized
)

// OK reports whether the update was applied.
func (r UpdateResult) OK() bool { return r == UpdateOK }

func (r UpdateResult) String() string {
	switch r {
	case UpdateOK:
		return "ok"
	case UpdateNotFound:
		return "not_found"
	case UpdateUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Err converts a negative result into the matching sentinel error.
func (r UpdateResult) Err() error {
	switch r {
	case UpdateNotFound:
		return ErrMovieNotFound
	case UpdateUnauthorized:
		return ErrForbidden
	}
	return nil
}
