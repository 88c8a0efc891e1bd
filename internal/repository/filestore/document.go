package filestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iliyamo/movieweb/internal/model"
)

// userRecord is one element of the persisted JSON array.
type userRecord struct {
	ID     uint64        `json:"ID"`
	Name   string        `json:"name"`
	Movies []movieRecord `json:"movies"`
}

// movieRecord is one entry of a user's movie list.
type movieRecord struct {
	ImdbID    string      `json:"imdb_ID"`
	Title     string      `json:"title"`
	Year      looseString `json:"year"`
	Rating    looseString `json:"rating"`
	PosterURL string      `json:"poster_url"`
}

// looseString accepts a JSON string, number or null. Older documents
// stored ratings and years as numbers.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = looseString(n.String())
	return nil
}

func (m movieRecord) toModel(userID uint64) model.Movie {
	return model.Movie{
		ImdbID: m.ImdbID,
		Title:  m.Title,
		Year:   string(m.Year),
		Rating: string(m.Rating),
		Poster: m.PosterURL,
		UserID: userID,
	}
}

func newMovieRecord(in model.MovieInput) movieRecord {
	return movieRecord{
		ImdbID:    in.ImdbID,
		Title:     in.Title,
		Year:      looseString(in.Year),
		Rating:    looseString(in.Rating),
		PosterURL: in.Poster,
	}
}

// decodeDocument parses the persisted array. Nil movie lists are replaced
// with empty ones so the document round-trips as `[]`.
func decodeDocument(data []byte) ([]userRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []userRecord{}, nil
	}
	var users []userRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []userRecord{}
	}
	for i := range users {
		if users[i].Movies == nil {
			users[i].Movies = []movieRecord{}
		}
	}
	return users, nil
}

func encodeDocument(users []userRecord) ([]byte, error) {
	return json.MarshalIndent(users, "", "  ")
}

func parseSeq(data []byte) (uint64, error) {
	s := string(bytes.TrimSpace(data))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
