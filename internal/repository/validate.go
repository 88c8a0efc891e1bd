package repository

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/movieweb/internal/model"
)

// NormalizeUsername trims the username and checks its length.
func NormalizeUsername(username string) (string, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return "", fmt.Errorf("username is required: %w", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > model.MaxUsernameLen {
		return "", fmt.Errorf("username longer than %d characters: %w", model.MaxUsernameLen, ErrInvalidInput)
	}
	return name, nil
}

// NormalizeMovie trims the movie fields and checks that title and year
// are present and that no field exceeds its limit.
func NormalizeMovie(in model.MovieInput) (model.MovieInput, error) {
	out := in.Normalize()
	if out.Title == "" {
		return out, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if !model.ValidYear(out.Year) {
		return out, fmt.Errorf("year must have four digits: %w", ErrInvalidInput)
	}
	for _, f := range []struct {
		name, value string
		max         int
	}{
		{"title", out.Title, model.MaxTitleLen},
		{"rating", out.Rating, model.MaxRatingLen},
		{"imdb id", out.ImdbID, model.MaxImdbIDLen},
		{"poster", out.Poster, model.MaxPosterLen},
	} {
		if err := checkLen(f.name, f.value, f.max); err != nil {
			return out, err
		}
	}
	return out, nil
}

func checkLen(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s longer than %d characters: %w", field, max, ErrInvalidInput)
	}
	return nil
}

// NormalizeMovieUpdate trims the new title and rating of an update.
func NormalizeMovieUpdate(title, rating string) (string, string, error) {
	title = strings.TrimSpace(title)
	rating = strings.TrimSpace(rating)
	if title == "" {
		return "", "", fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if rating == "" {
		rating = model.DefaultRating
	}
	if err := checkLen("title", title, model.MaxTitleLen); err != nil {
		return "", "", err
	}
	if err := checkLen("rating", rating, model.MaxRatingLen); err != nil {
		return "", "", err
	}
	return title, rating, nil
}

// NormalizeReview trims the review text and checks text length and rating
// range.
func NormalizeReview(text string, rating int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("review text is required: %w", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > model.MaxReviewLen {
		return "", fmt.Errorf("review text longer than %d characters: %w", model.MaxReviewLen, ErrInvalidInput)
	}
	if rating < model.MinReviewRating || rating > model.MaxReviewRating {
		return "", fmt.Errorf("rating must be between %d and %d: %w", model.MinReviewRating, model.MaxReviewRating, ErrInvalidInput)
	}
	return text, nil
}
