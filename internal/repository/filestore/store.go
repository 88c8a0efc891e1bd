// Package filestore implements repository.Store on a single JSON document.
// The document is an array of users, each embedding its movie list.
//
// Every operation runs as one scoped step: take the process-wide lock,
// reload the document from disk, apply the change, write the whole
// document back and release the lock. Writes go to a temporary file that
// is renamed over the document. Two processes writing the same file are
// not coordinated: the last writer wins.
//
// Movies are keyed by their external ImdbID. New movies must carry one;
// legacy entries with an empty imdb_ID still load and are listed, but no
// key names them, so they cannot be fetched, updated or deleted on their
// own (deleting the user removes them). The store has no review concept
// and does not implement repository.ReviewStore.
//
// User ids come from a monotonic counter persisted next to the document
// in "<path>.seq", so deleting the newest user never leads to its id
// being handed out again.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store owns the in-memory copy of the document.
type Store struct {
	path    string
	seqPath string

	mu     sync.Mutex
	users  []userRecord
	lastID uint64
}

// Open returns a Store backed by path. A missing file is an empty store;
// a malformed file is an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path, seqPath: path + ".seq"}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the JSON document.
func (s *Store) Path() string { return s.path }

// load replaces the in-memory state with the files on disk. Callers hold mu.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	users, err := decodeDocument(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}

	seq, err := os.ReadFile(s.seqPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		seq = nil
	case err != nil:
		return fmt.Errorf("read %s: %w", s.seqPath, err)
	}
	lastID, err := parseSeq(seq)
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.seqPath, err)
	}

	s.users = users
	s.lastID = lastID
	return nil
}

// persist writes the document and the id counter. Callers hold mu.
func (s *Store) persist() error {
	data, err := encodeDocument(s.users)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	return writeFileAtomic(s.seqPath, []byte(strconv.FormatUint(s.lastID, 10)+"\n"))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// view reloads the document and runs fn under the lock.
func (s *Store) view(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	return fn()
}

// mutate is the acquire, reload, mutate, persist, release step. fn
// reports whether it changed anything; unchanged documents are not
// rewritten. When fn or the write fails the in-memory copy is reloaded
// on the next call, so a failed step never leaks into later reads.
func (s *Store) mutate(ctx context.Context, fn func() (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	changed, err := fn()
	if err != nil || !changed {
		return err
	}
	return s.persist()
}

func (s *Store) findUser(userID uint64) (int, bool) {
	for i := range s.users {
		if s.users[i].ID == userID {
			return i, true
		}
	}
	return -1, false
}

// findMovie never matches an empty key: legacy entries without an
// imdb_ID are listed but cannot be addressed.
func findMovie(movies []movieRecord, imdbID string) (int, bool) {
	if imdbID == "" {
		return -1, false
	}
	for i := range movies {
		if movies[i].ImdbID == imdbID {
			return i, true
		}
	}
	return -1, false
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	var out []model.UserSummary
	err := s.view(ctx, func() error {
		out = make([]model.UserSummary, 0, len(s.users))
		for _, u := range s.users {
			out = append(out, model.UserSummary{ID: u.ID, Username: u.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortUsers(out)
	return out, nil
}

// GetUserMovies returns the user's movies in insertion order.
func (s *Store) GetUserMovies(ctx context.Context, userID uint64) ([]model.Movie, error) {
	var out []model.Movie
	err := s.view(ctx, func() error {
		i, ok := s.findUser(userID)
		if !ok {
			return repository.ErrUserNotFound
		}
		out = make([]model.Movie, 0, len(s.users[i].Movies))
		for _, m := range s.users[i].Movies {
			out = append(out, m.toModel(userID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetUserName returns the user's name.
func (s *Store) GetUserName(ctx context.Context, userID uint64) (string, error) {
	var name string
	err := s.view(ctx, func() error {
		i, ok := s.findUser(userID)
		if !ok {
			return repository.ErrUserNotFound
		}
		name = s.users[i].Name
		return nil
	})
	return name, err
}

// AddUser appends a user with the next id from the persisted counter.
func (s *Store) AddUser(ctx context.Context, username string) (uint64, error) {
	name, err := repository.NormalizeUsername(username)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = s.mutate(ctx, func() (bool, error) {
		next := s.lastID
		for _, u := range s.users {
			if u.ID > next {
				next = u.ID
			}
		}
		next++
		s.users = append(s.users, userRecord{ID: next, Name: name, Movies: []movieRecord{}})
		s.lastID = next
		id = next
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteUser removes the user and its embedded movies. Absent users are
// ignored.
func (s *Store) DeleteUser(ctx context.Context, userID uint64) error {
	return s.mutate(ctx, func() (bool, error) {
		i, ok := s.findUser(userID)
		if !ok {
			return false, nil
		}
		s.users = append(s.users[:i], s.users[i+1:]...)
		return true, nil
	})
}

// AddMovieToUser appends a movie to the user's list and returns its
// ImdbID, which is required in this store. The ImdbID must not be used
// by any movie in the document.
func (s *Store) AddMovieToUser(ctx context.Context, userID uint64, in model.MovieInput) (string, error) {
	in, err := repository.NormalizeMovie(in)
	if err != nil {
		return "", err
	}
	if in.ImdbID == "" {
		return "", fmt.Errorf("imdb id is required: %w", repository.ErrInvalidInput)
	}
	err = s.mutate(ctx, func() (bool, error) {
		i, ok := s.findUser(userID)
		if !ok {
			return false, repository.ErrUserNotFound
		}
		for _, u := range s.users {
			if _, dup := findMovie(u.Movies, in.ImdbID); dup {
				return false, repository.ErrDuplicateMovie
			}
		}
		s.users[i].Movies = append(s.users[i].Movies, newMovieRecord(in))
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return in.ImdbID, nil
}

// GetMovie returns the movie with the given ImdbID from the user's list.
func (s *Store) GetMovie(ctx context.Context, userID uint64, movieKey string) (model.Movie, error) {
	var out model.Movie
	err := s.view(ctx, func() error {
		i, ok := s.findUser(userID)
		if !ok {
			return repository.ErrMovieNotFound
		}
		j, ok := findMovie(s.users[i].Movies, movieKey)
		if !ok {
			return repository.ErrMovieNotFound
		}
		out = s.users[i].Movies[j].toModel(userID)
		return nil
	})
	return out, err
}

// UpdateMovie sets title and rating of the movie with the given ImdbID.
// A movie found only in another user's list yields UpdateUnauthorized.
func (s *Store) UpdateMovie(ctx context.Context, userID uint64, movieKey, newTitle, newRating string) (repository.UpdateResult, error) {
	title, rating, err := repository.NormalizeMovieUpdate(newTitle, newRating)
	if err != nil {
		return repository.UpdateNotFound, err
	}
	result := repository.UpdateNotFound
	err = s.mutate(ctx, func() (bool, error) {
		if i, ok := s.findUser(userID); ok {
			if j, ok := findMovie(s.users[i].Movies, movieKey); ok {
				m := &s.users[i].Movies[j]
				m.Title = title
				m.Rating = looseString(rating)
				result = repository.UpdateOK
				return true, nil
			}
		}
		for _, u := range s.users {
			if _, ok := findMovie(u.Movies, movieKey); ok {
				result = repository.UpdateUnauthorized
				break
			}
		}
		return false, nil
	})
	if err != nil {
		return repository.UpdateNotFound, err
	}
	return result, nil
}

// DeleteMovie removes the movie with the given ImdbID from the user's
// list. Absent movies are ignored.
func (s *Store) DeleteMovie(ctx context.Context, userID uint64, movieKey string) error {
	return s.mutate(ctx, func() (bool, error) {
		i, ok := s.findUser(userID)
		if !ok {
			return false, nil
		}
		j, ok := findMovie(s.users[i].Movies, movieKey)
		if !ok {
			return false, nil
		}
		movies := s.users[i].Movies
		s.users[i].Movies = append(movies[:j], movies[j+1:]...)
		return true, nil
	})
}
