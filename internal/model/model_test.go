package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovie_Key(t *testing.T) {
	assert.Equal(t, "12", Movie{ID: 12, ImdbID: "tt1"}.Key())
	assert.Equal(t, "tt1", Movie{ImdbID: "tt1"}.Key())
}

func TestValidYear(t *testing.T) {
	for s, want := range map[string]bool{
		"2010":  true,
		"201":   false,
		"20100": false,
		"20a0":  false,
		"２０１０":  false,
		"":      false,
	} {
		assert.Equal(t, want, ValidYear(s), s)
	}
}

func TestMovieInput_Normalize(t *testing.T) {
	in := MovieInput{Title: " Inception ", Year: " 2010", ImdbID: " tt1375666 "}.Normalize()
	assert.Equal(t, MovieInput{Title: "Inception", Year: "2010", Rating: DefaultRating, ImdbID: "tt1375666"}, in)
}
