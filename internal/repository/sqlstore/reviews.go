package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

const (
	reviewColumns = "review_id, user_id, movie_id, review_text, rating"

	qInsertReview    = "INSERT INTO review (user_id, movie_id, review_text, rating) VALUES (?, ?, ?, ?)"
	qReviewsForMovie = "SELECT " + reviewColumns + " FROM review WHERE movie_id = ? ORDER BY review_id"
	qReviewByID      = "SELECT " + reviewColumns + " FROM review WHERE review_id = ?"
	qUpdateReview    = "UPDATE review SET review_text = ?, rating = ? WHERE review_id = ?"
	qDeleteReview    = "DELETE FROM review WHERE review_id = ?"
)

func scanReview(sc scanner) (model.Review, error) {
	var r model.Review
	err := sc.Scan(&r.ID, &r.UserID, &r.MovieID, &r.Text, &r.Rating)
	return r, err
}

// AddReview stores a review written by userID on movieID and returns its id.
func (s *Store) AddReview(ctx context.Context, userID, movieID uint64, text string, rating int) (uint64, error) {
	text, err := repository.NormalizeReview(text, rating)
	if err != nil {
		return 0, err
	}
	if err := s.userExists(ctx, s.db, userID); err != nil {
		return 0, err
	}
	if err := s.movieExists(ctx, s.db, movieID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, qInsertReview, userID, movieID, text, rating)
	if err != nil {
		return 0, classify(err, repository.ErrMovieNotFound)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetReviewsForMovie returns the reviews of a movie ordered by id, or
// ErrMovieNotFound.
func (s *Store) GetReviewsForMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	if err := s.movieExists(ctx, s.db, movieID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, qReviewsForMovie, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateReview replaces text and rating of a review written by userID.
func (s *Store) UpdateReview(ctx context.Context, userID, movieID, reviewID uint64, text string, rating int) error {
	text, err := repository.NormalizeReview(text, rating)
	if err != nil {
		return err
	}
	if _, err := s.ownedReview(ctx, userID, movieID, reviewID); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, qUpdateReview, text, rating, reviewID)
	return err
}

// DeleteReview removes a review written by userID.
func (s *Store) DeleteReview(ctx context.Context, userID, movieID, reviewID uint64) error {
	if _, err := s.ownedReview(ctx, userID, movieID, reviewID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, qDeleteReview, reviewID)
	return err
}

// ownedReview validates user, movie and review and checks that the review
// is attached to movieID and was written by userID.
func (s *Store) ownedReview(ctx context.Context, userID, movieID, reviewID uint64) (model.Review, error) {
	if err := s.userExists(ctx, s.db, userID); err != nil {
		return model.Review{}, err
	}
	if err := s.movieExists(ctx, s.db, movieID); err != nil {
		return model.Review{}, err
	}
	r, err := scanReview(s.db.QueryRowContext(ctx, qReviewByID, reviewID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, repository.ErrReviewNotFound
		}
		return model.Review{}, err
	}
	if r.MovieID != movieID {
		return model.Review{}, repository.ErrReviewNotFound
	}
	if r.UserID != userID {
		return model.Review{}, repository.ErrForbidden
	}
	return r, nil
}
