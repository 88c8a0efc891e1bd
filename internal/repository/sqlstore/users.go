package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

const (
	qListUsers  = "SELECT user_id, username FROM `user` ORDER BY user_id"
	qUserName   = "SELECT username FROM `user` WHERE user_id = ?"
	qUserExists = "SELECT 1 FROM `user` WHERE user_id = ? LIMIT 1"
	qInsertUser = "INSERT INTO `user` (username) VALUES (?)"
	qLockUser   = "SELECT 1 FROM `user` WHERE user_id = ? FOR UPDATE"
	qDeleteUser = "DELETE FROM `user` WHERE user_id = ?"

	qDeleteUserMovieReviews = "DELETE r FROM review r JOIN movie m ON m.movie_id = r.movie_id WHERE m.user_id = ?"
	qDeleteUserReviews      = "DELETE FROM review WHERE user_id = ?"
	qDeleteUserMovies       = "DELETE FROM movie WHERE user_id = ?"
)

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, qListUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.UserSummary, 0)
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUserName fetches the username of a user.
func (s *Store) GetUserName(ctx context.Context, userID uint64) (string, error) {
	var name string
	if err := s.db.QueryRowContext(ctx, qUserName, userID).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrUserNotFound
		}
		return "", err
	}
	return name, nil
}

// AddUser inserts a user and returns its ID.
func (s *Store) AddUser(ctx context.Context, username string) (uint64, error) {
	name, err := repository.NormalizeUsername(username)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, qInsertUser, name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DeleteUser removes a user together with its movies, the reviews on
// those movies and the reviews the user wrote on other movies. All rows
// go in one transaction. An absent user is not an error.
func (s *Store) DeleteUser(ctx context.Context, userID uint64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, qLockUser, userID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for _, q := range []string{qDeleteUserMovieReviews, qDeleteUserReviews, qDeleteUserMovies, qDeleteUser} {
			if _, err := tx.ExecContext(ctx, q, userID); err != nil {
				return fmt.Errorf("delete user %d: %w", userID, err)
			}
		}
		return nil
	})
}

func (s *Store) userExists(ctx context.Context, q queryer, userID uint64) error {
	ok, err := exists(ctx, q, qUserExists, userID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrUserNotFound
	}
	return nil
}
