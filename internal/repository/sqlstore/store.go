// Package sqlstore implements repository.Store and repository.ReviewStore
// on top of MySQL. Users, movies and reviews live in three related tables
// (see Migrate). Every delete that touches more than one table runs in a
// single transaction so readers never observe a partial cascade.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movieweb/internal/repository"
)

var (
	_ repository.Store       = (*Store)(nil)
	_ repository.ReviewStore = (*Store)(nil)
)

// MySQL server error numbers the store translates.
const (
	errDupEntry        = 1062
	errDataTooLong     = 1406
	errNoReferencedRow = 1452
)

// Store encapsulates all database queries of the application. It
// depends on a sql.DB connection pool which is configured elsewhere.
type Store struct {
	db *sql.DB
}

// New constructs a Store with the provided DB handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// exists runs a single-column probe query and reports whether it found a row.
func exists(ctx context.Context, q queryer, query string, id uint64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// withTx runs fn inside a transaction. The transaction is rolled back if
// fn fails and committed otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// classify maps MySQL constraint violations onto repository errors.
// missingRef is returned when a foreign key points at a deleted row.
func classify(err error, missingRef error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return repository.ErrDuplicateMovie
		case errDataTooLong:
			return fmt.Errorf("%s: %w", me.Message, repository.ErrInvalidInput)
		case errNoReferencedRow:
			return missingRef
		}
	}
	return err
}

// nullIfEmpty stores empty strings as NULL so the unique imdbID index
// admits any number of movies without an external identifier.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
