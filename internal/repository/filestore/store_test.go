package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func inception() model.MovieInput {
	return model.MovieInput{
		Title:  "Inception",
		Year:   "2010",
		Rating: "8.8",
		Poster: "http://img/inception.jpg",
		ImdbID: "tt1375666",
	}
}

// ---------------------------------------------------------------------------
// Open / persistence
// ---------------------------------------------------------------------------

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, path := newStore(t)

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "reads must not create the document")
}

func TestOpen_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpen_ReadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	doc := `[{"ID": 3, "name": "bob", "movies": [
		{"imdb_ID": "tt0133093", "title": "The Matrix", "year": 1999, "rating": 8.7, "poster_url": "p"}
	]}, {"ID": 4, "name": "carol", "movies": null}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Open(path)
	require.NoError(t, err)

	movies, err := s.GetUserMovies(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "1999", movies[0].Year)
	assert.Equal(t, "8.7", movies[0].Rating)

	movies, err = s.GetUserMovies(context.Background(), 4)
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestStore_RoundTripAcrossInstances(t *testing.T) {
	ctx := context.Background()
	s, path := newStore(t)

	id, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	_, err = s.AddMovieToUser(ctx, id, inception())
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	want := []model.Movie{{
		ImdbID: "tt1375666",
		Title:  "Inception",
		Year:   "2010",
		Rating: "8.8",
		Poster: "http://img/inception.jpg",
		UserID: id,
	}}
	got, err := reopened.GetUserMovies(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("movies mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ReadsSeeOtherWriters(t *testing.T) {
	ctx := context.Background()
	s, path := newStore(t)

	other, err := Open(path)
	require.NoError(t, err)
	_, err = other.AddUser(ctx, "written elsewhere")
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "written elsewhere", users[0].Username)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	s, path := newStore(t)
	_, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"movies.json", "movies.json.seq"}, names)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestStore_AddUserAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	id, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id, err = s.AddUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.UserSummary{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, users)
}

func TestStore_AddUserValidation(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.AddUser(ctx, "  ")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	long := make([]byte, model.MaxUsernameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.AddUser(ctx, string(long))
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestStore_DeletedIDIsNotReused(t *testing.T) {
	ctx := context.Background()
	s, path := newStore(t)

	_, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.AddUser(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, s.DeleteUser(ctx, bob))

	reopened, err := Open(path)
	require.NoError(t, err)
	carol, err := reopened.AddUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), carol)
}

func TestStore_CounterFollowsExistingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"ID": 7, "name": "old", "movies": []}]`), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.AddUser(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), id)
}

func TestStore_DeleteUserCascadesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	id, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	_, err = s.AddMovieToUser(ctx, id, inception())
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, id))
	require.NoError(t, s.DeleteUser(ctx, id))

	_, err = s.GetUserMovies(ctx, id)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = s.GetUserName(ctx, id)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	// The ImdbID is free again once its owner is gone.
	other, err := s.AddUser(ctx, "bob")
	require.NoError(t, err)
	_, err = s.AddMovieToUser(ctx, other, inception())
	assert.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Movies
// ---------------------------------------------------------------------------

func TestStore_AddMovieToUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	id, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)

	in := inception()
	in.Rating = ""
	key, err := s.AddMovieToUser(ctx, id, in)
	require.NoError(t, err)
	assert.Equal(t, "tt1375666", key)

	m, err := s.GetMovie(ctx, id, key)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRating, m.Rating)
	assert.Equal(t, id, m.UserID)
}

func TestStore_AddMovieToUserErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	id, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		userID uint64
		mutate func(*model.MovieInput)
		want   error
	}{
		{"missing user", 99, func(*model.MovieInput) {}, repository.ErrUserNotFound},
		{"missing title", id, func(in *model.MovieInput) { in.Title = " " }, repository.ErrInvalidInput},
		{"missing year", id, func(in *model.MovieInput) { in.Year = "" }, repository.ErrInvalidInput},
		{"bad year", id, func(in *model.MovieInput) { in.Year = "20x0" }, repository.ErrInvalidInput},
		{"missing imdb id", id, func(in *model.MovieInput) { in.ImdbID = "" }, repository.ErrInvalidInput},
		{"long title", id, func(in *model.MovieInput) { in.Title = strings.Repeat("x", model.MaxTitleLen+1) }, repository.ErrInvalidInput},
		{"long rating", id, func(in *model.MovieInput) { in.Rating = "Masterpiece!!" }, repository.ErrInvalidInput},
		{"long imdb id", id, func(in *model.MovieInput) { in.ImdbID = "tt" + strings.Repeat("1", model.MaxImdbIDLen) }, repository.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := inception()
			tc.mutate(&in)
			_, err := s.AddMovieToUser(ctx, tc.userID, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	movies, err := s.GetUserMovies(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestStore_AddMovieRejectsDuplicateImdbID(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.AddUser(ctx, "bob")
	require.NoError(t, err)

	_, err = s.AddMovieToUser(ctx, alice, inception())
	require.NoError(t, err)

	_, err = s.AddMovieToUser(ctx, alice, inception())
	assert.ErrorIs(t, err, repository.ErrDuplicateMovie)
	_, err = s.AddMovieToUser(ctx, bob, inception())
	assert.ErrorIs(t, err, repository.ErrDuplicateMovie)
}

func TestStore_UpdateMovieOwnership(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.AddUser(ctx, "bob")
	require.NoError(t, err)
	key, err := s.AddMovieToUser(ctx, alice, inception())
	require.NoError(t, err)

	res, err := s.UpdateMovie(ctx, bob, key, "Stolen", "1")
	require.NoError(t, err)
	assert.Equal(t, repository.UpdateUnauthorized, res)
	assert.False(t, res.OK())

	res, err = s.UpdateMovie(ctx, alice, "tt0000000", "Nothing", "1")
	require.NoError(t, err)
	assert.Equal(t, repository.UpdateNotFound, res)

	m, err := s.GetMovie(ctx, alice, key)
	require.NoError(t, err)
	assert.Equal(t, "Inception", m.Title)

	res, err = s.UpdateMovie(ctx, alice, key, " Inception (2010) ", "")
	require.NoError(t, err)
	assert.True(t, res.OK())

	m, err = s.GetMovie(ctx, alice, key)
	require.NoError(t, err)
	assert.Equal(t, "Inception (2010)", m.Title)
	assert.Equal(t, model.DefaultRating, m.Rating)
	assert.Equal(t, "2010", m.Year, "year is not updatable")
}

func TestStore_UpdateMovieRejectsEmptyTitle(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	key, err := s.AddMovieToUser(ctx, alice, inception())
	require.NoError(t, err)

	_, err = s.UpdateMovie(ctx, alice, key, "", "5")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestStore_UpdateMovieRejectsOverlongFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	key, err := s.AddMovieToUser(ctx, alice, inception())
	require.NoError(t, err)

	_, err = s.UpdateMovie(ctx, alice, key, strings.Repeat("x", 150), "8.8")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
	_, err = s.UpdateMovie(ctx, alice, key, "Inception", "Masterpiece!!")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	// Exactly at the limit is accepted.
	res, err := s.UpdateMovie(ctx, alice, key, strings.Repeat("é", model.MaxTitleLen), "8.8")
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestStore_MovieWithoutImdbIDIsNotAddressable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "movies.json")
	doc := `[{"ID": 1, "name": "alice", "movies": [{"imdb_ID": "", "title": "Old", "year": "1999", "rating": "7", "poster_url": ""}]}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	s, err := Open(path)
	require.NoError(t, err)

	movies, err := s.GetUserMovies(ctx, 1)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "", movies[0].Key())

	_, err = s.GetMovie(ctx, 1, "")
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
	res, err := s.UpdateMovie(ctx, 1, "", "New", "8")
	require.NoError(t, err)
	assert.Equal(t, repository.UpdateNotFound, res)
	require.NoError(t, s.DeleteMovie(ctx, 1, ""))

	movies, err = s.GetUserMovies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Old", movies[0].Title)
}

func TestStore_GetMovieOfOtherUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.AddUser(ctx, "bob")
	require.NoError(t, err)
	key, err := s.AddMovieToUser(ctx, alice, inception())
	require.NoError(t, err)

	_, err = s.GetMovie(ctx, bob, key)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
}

func TestStore_DeleteMovie(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice, err := s.AddUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.AddUser(ctx, "bob")
	require.NoError(t, err)
	key, err := s.AddMovieToUser(ctx, alice, inception())
	require.NoError(t, err)

	// Not owned by bob: no-op.
	require.NoError(t, s.DeleteMovie(ctx, bob, key))
	movies, err := s.GetUserMovies(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, movies, 1)

	require.NoError(t, s.DeleteMovie(ctx, alice, key))
	require.NoError(t, s.DeleteMovie(ctx, alice, key))
	movies, err = s.GetUserMovies(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestStore_ConcurrentAddUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	const n = 20
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.AddUser(ctx, "user")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, n)
}

func TestStore_CanceledContext(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddUser(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
}
