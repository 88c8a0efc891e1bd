package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

const (
	movieColumns = "movie_id, COALESCE(imdbID, ''), title, year, rating, poster, user_id"

	qUserMovies  = "SELECT " + movieColumns + " FROM movie WHERE user_id = ? ORDER BY movie_id"
	qMovieByID   = "SELECT " + movieColumns + " FROM movie WHERE movie_id = ?"
	qMovieExists = "SELECT 1 FROM movie WHERE movie_id = ? LIMIT 1"
	qMovieOwner  = "SELECT user_id FROM movie WHERE movie_id = ?"
	qLockMovie   = "SELECT user_id FROM movie WHERE movie_id = ? FOR UPDATE"
	qInsertMovie = "INSERT INTO movie (title, year, rating, user_id, imdbID, poster) VALUES (?, ?, ?, ?, ?, ?)"
	qUpdateMovie = "UPDATE movie SET title = ?, rating = ? WHERE movie_id = ? AND user_id = ?"

	qDeleteMovieReviews = "DELETE FROM review WHERE movie_id = ?"
	qDeleteMovie        = "DELETE FROM movie WHERE movie_id = ? AND user_id = ?"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(sc scanner) (model.Movie, error) {
	var m model.Movie
	err := sc.Scan(&m.ID, &m.ImdbID, &m.Title, &m.Year, &m.Rating, &m.Poster, &m.UserID)
	return m, err
}

// parseKey converts a movie key into a movie_id. Keys that are not
// decimal ids cannot name a row in this store.
func parseKey(key string) (uint64, bool) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// GetUserMovies returns the user's movies ordered by id. It returns
// ErrUserNotFound when the user does not exist.
func (s *Store) GetUserMovies(ctx context.Context, userID uint64) ([]model.Movie, error) {
	if err := s.userExists(ctx, s.db, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, qUserMovies, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMovieToUser inserts a movie owned by userID and returns its
// movie_id as a decimal string.
func (s *Store) AddMovieToUser(ctx context.Context, userID uint64, in model.MovieInput) (string, error) {
	in, err := repository.NormalizeMovie(in)
	if err != nil {
		return "", err
	}
	if err := s.userExists(ctx, s.db, userID); err != nil {
		return "", err
	}
	res, err := s.db.ExecContext(ctx, qInsertMovie,
		in.Title, in.Year, in.Rating, userID, nullIfEmpty(in.ImdbID), in.Poster)
	if err != nil {
		return "", classify(err, repository.ErrUserNotFound)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// GetMovie fetches a movie by id but only if it belongs to userID.
func (s *Store) GetMovie(ctx context.Context, userID uint64, movieKey string) (model.Movie, error) {
	id, ok := parseKey(movieKey)
	if !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	m, err := scanMovie(s.db.QueryRowContext(ctx, qMovieByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, repository.ErrMovieNotFound
		}
		return model.Movie{}, err
	}
	if m.UserID != userID {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return m, nil
}

// UpdateMovie sets title and rating of a movie. The owner is checked
// first: a movie owned by someone else yields UpdateUnauthorized and is
// left untouched.
func (s *Store) UpdateMovie(ctx context.Context, userID uint64, movieKey, newTitle, newRating string) (repository.UpdateResult, error) {
	title, rating, err := repository.NormalizeMovieUpdate(newTitle, newRating)
	if err != nil {
		return repository.UpdateNotFound, err
	}
	id, ok := parseKey(movieKey)
	if !ok {
		return repository.UpdateNotFound, nil
	}
	var owner uint64
	if err := s.db.QueryRowContext(ctx, qMovieOwner, id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.UpdateNotFound, nil
		}
		return repository.UpdateNotFound, err
	}
	if owner != userID {
		return repository.UpdateUnauthorized, nil
	}
	// RowsAffected is not checked: MySQL reports 0 for an update that
	// changes nothing.
	if _, err := s.db.ExecContext(ctx, qUpdateMovie, title, rating, id, userID); err != nil {
		return repository.UpdateNotFound, classify(err, repository.ErrMovieNotFound)
	}
	return repository.UpdateOK, nil
}

// DeleteMovie removes a movie and its reviews in one transaction. Absent
// movies and movies owned by another user are ignored.
func (s *Store) DeleteMovie(ctx context.Context, userID uint64, movieKey string) error {
	id, ok := parseKey(movieKey)
	if !ok {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var owner uint64
		if err := tx.QueryRowContext(ctx, qLockMovie, id).Scan(&owner); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		if owner != userID {
			return nil
		}
		if _, err := tx.ExecContext(ctx, qDeleteMovieReviews, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, qDeleteMovie, id, userID); err != nil {
			return err
		}
		return nil
	})
}

func (s *Store) movieExists(ctx context.Context, q queryer, movieID uint64) error {
	ok, err := exists(ctx, q, qMovieExists, movieID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrMovieNotFound
	}
	return nil
}
