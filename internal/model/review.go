package model

// Review models an entry in the `review` table. A review belongs to
// exactly one movie and references the user who wrote it.
//
// Fields:
//
//	ID      – review.review_id
//	UserID  – author, references user.user_id
//	MovieID – reviewed movie, references movie.movie_id
//	Text    – review.review_text, 1..MaxReviewLen characters
//	Rating  – integer score between MinReviewRating and MaxReviewRating
type Review struct {
	ID      uint64 `json:"review_id"`
	UserID  uint64 `json:"user_id"`
	MovieID uint64 `json:"movie_id"`
	Text    string `json:"review_text"`
	Rating  int    `json:"rating"`
}

const (
	MaxReviewLen    = 500
	MinReviewRating = 1
	MaxReviewRating = 10
)
