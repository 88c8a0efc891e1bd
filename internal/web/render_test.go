package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movieweb/internal/model"
)

func TestNewRenderer_ParsesEveryPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	for _, page := range []string{
		"index.html", "users.html", "add_user.html", "delete_user.html",
		"user_movies.html", "add_movie.html", "update_movie.html",
		"movie_reviews.html", "add_review.html", "update_review.html", "error.html",
	} {
		assert.True(t, r.Has(page), page)
	}
	assert.False(t, r.Has("layout.html"))
}

func TestRenderer_EscapesAndUsesLayout(t *testing.T) {
	r := MustRenderer()
	var buf bytes.Buffer
	err := r.Render(&buf, "user_movies.html", map[string]interface{}{
		"UserID":         uint64(1),
		"UserName":       "<alice>",
		"ReviewsEnabled": false,
		"Movies":         []model.Movie{{ImdbID: "tt1375666", Title: "Inception", Year: "2010", Rating: "8.8"}},
	}, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>&lt;alice&gt;'s movies</title>")
	assert.Contains(t, out, "/users/1/update_movie/tt1375666")
	assert.NotContains(t, out, "/reviews")
}

func TestRenderer_UnknownPage(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, MustRenderer().Render(&buf, "nope.html", nil, nil))
}
