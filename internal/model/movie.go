package model

import (
	"strconv"
	"strings"
	"unicode"
)

// DefaultRating is stored when no rating is known for a movie.
const DefaultRating = "N/A"

// Field limits in characters, matching the widths of the movie columns.
const (
	MaxTitleLen  = 100
	MaxRatingLen = 10
	MaxImdbIDLen = 30
	MaxPosterLen = 2048
)

// Movie represents a row in the `movie` table or one entry of a user's
// movie list in the flat-file document.
//
// Fields:
//
//	ID     – movie.movie_id; assigned by the relational store, zero in the flat-file store.
//	ImdbID – external identifier from the metadata service; the movie key in the flat-file store.
//	Title  – display title.
//	Year   – four digit release year kept as a string.
//	Rating – free-form rating string, DefaultRating when unknown.
//	Poster – poster image URL.
//	UserID – owner of the movie.
type Movie struct {
	ID     uint64 `json:"movie_id,omitempty"`
	ImdbID string `json:"imdb_id,omitempty"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Rating string `json:"rating"`
	Poster string `json:"poster,omitempty"`
	UserID uint64 `json:"user_id"`
}

// Key returns the identifier stores accept as a movie key: the decimal
// movie id when one was assigned, the ImdbID otherwise.
func (m Movie) Key() string {
	if m.ID != 0 {
		return strconv.FormatUint(m.ID, 10)
	}
	return m.ImdbID
}

// MovieInput carries the caller supplied fields for a new movie.
type MovieInput struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	Rating string `json:"rating"`
	Poster string `json:"poster"`
	ImdbID string `json:"imdb_id"`
}

// Normalize trims every field and applies DefaultRating.
func (in MovieInput) Normalize() MovieInput {
	out := MovieInput{
		Title:  strings.TrimSpace(in.Title),
		Year:   strings.TrimSpace(in.Year),
		Rating: strings.TrimSpace(in.Rating),
		Poster: strings.TrimSpace(in.Poster),
		ImdbID: strings.TrimSpace(in.ImdbID),
	}
	if out.Rating == "" {
		out.Rating = DefaultRating
	}
	return out
}

// ValidYear reports whether s is exactly four ASCII digits.
func ValidYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// MovieRecord is the normalized result of a metadata lookup.
type MovieRecord struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	Rating string `json:"rating"`
	Poster string `json:"poster"`
	ImdbID string `json:"imdb_id"`
}

// Input maps a lookup record onto the fields accepted by AddMovieToUser.
func (r MovieRecord) Input() MovieInput {
	return MovieInput{
		Title:  r.Title,
		Year:   r.Year,
		Rating: r.Rating,
		Poster: r.Poster,
		ImdbID: r.ImdbID,
	}
}
