package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/lookup"
	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/repository"
	"github.com/iliyamo/movieweb/internal/service"
)

func redirect(c echo.Context, format string, args ...interface{}) error {
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf(format, args...))
}

// formError reports whether err is the user's to fix on the form that
// produced it, as opposed to a missing resource or a server failure.
func formError(err error) bool {
	return errors.Is(err, repository.ErrInvalidInput) ||
		errors.Is(err, repository.ErrDuplicateMovie) ||
		errors.Is(err, lookup.ErrInvalidTitle) ||
		errors.Is(err, lookup.ErrNotFoundInLookup) ||
		errors.Is(err, lookup.ErrLookupFailed)
}

func (h *Handler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", nil)
}

func (h *Handler) UsersPage(c echo.Context) error {
	users, err := h.Lib.ListUsers(c.Request().Context())
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "users.html", echo.Map{"Users": users})
}

func (h *Handler) AddUserForm(c echo.Context) error {
	return c.Render(http.StatusOK, "add_user.html", echo.Map{})
}

func (h *Handler) AddUserSubmit(c echo.Context) error {
	username := c.FormValue("username")
	if _, err := h.Lib.AddUser(c.Request().Context(), username); err != nil {
		if formError(err) {
			status, msg := statusFor(err)
			return c.Render(status, "add_user.html", echo.Map{"Error": msg, "Username": username})
		}
		return h.pageError(c, err)
	}
	return redirect(c, "/users")
}

// userPage loads the user named by :id for pages scoped to one user.
func (h *Handler) userPage(c echo.Context) (uint64, string, error) {
	id, err := userParam(c)
	if err != nil {
		return 0, "", err
	}
	name, err := h.Lib.GetUserName(c.Request().Context(), id)
	if err != nil {
		return 0, "", err
	}
	return id, name, nil
}

func (h *Handler) UserMoviesPage(c echo.Context) error {
	id, name, err := h.userPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	movies, err := h.Lib.GetUserMovies(c.Request().Context(), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "user_movies.html", echo.Map{
		"UserID":         id,
		"UserName":       name,
		"Movies":         movies,
		"ReviewsEnabled": h.Lib.ReviewsEnabled(),
	})
}

func (h *Handler) DeleteUserForm(c echo.Context) error {
	id, name, err := h.userPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "delete_user.html", echo.Map{
		"UserID":         id,
		"UserName":       name,
		"ReviewsEnabled": h.Lib.ReviewsEnabled(),
	})
}

func (h *Handler) DeleteUserSubmit(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	if err := h.Lib.DeleteUser(c.Request().Context(), id); err != nil {
		return h.pageError(c, err)
	}
	return redirect(c, "/users")
}

func (h *Handler) AddMovieForm(c echo.Context) error {
	id, name, err := h.userPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "add_movie.html", echo.Map{"UserID": id, "UserName": name})
}

func (h *Handler) AddMovieSubmit(c echo.Context) error {
	id, name, err := h.userPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	title := c.FormValue("movie_title")
	if _, _, err := h.Lib.AddMovieByTitle(c.Request().Context(), id, title); err != nil {
		if formError(err) {
			status, msg := statusFor(err)
			return c.Render(status, "add_movie.html", echo.Map{
				"UserID":   id,
				"UserName": name,
				"Title":    title,
				"Error":    msg,
			})
		}
		return h.pageError(c, err)
	}
	return redirect(c, "/users/%d", id)
}

func (h *Handler) UpdateMovieForm(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	movie, err := h.Lib.GetMovie(c.Request().Context(), id, c.Param("movie"))
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "update_movie.html", echo.Map{"UserID": id, "Movie": movie})
}

func (h *Handler) UpdateMovieSubmit(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	ctx := c.Request().Context()
	key := c.Param("movie")
	title, rating := c.FormValue("new_title"), c.FormValue("new_rating")

	res, err := h.Lib.UpdateMovie(ctx, id, key, title, rating)
	if err != nil {
		if formError(err) {
			movie, gerr := h.Lib.GetMovie(ctx, id, key)
			if gerr != nil {
				return h.pageError(c, gerr)
			}
			movie.Title, movie.Rating = title, rating
			status, msg := statusFor(err)
			return c.Render(status, "update_movie.html", echo.Map{"UserID": id, "Movie": movie, "Error": msg})
		}
		return h.pageError(c, err)
	}
	if !res.OK() {
		return h.pageError(c, res.Err())
	}
	return redirect(c, "/users/%d", id)
}

func (h *Handler) DeleteMovieSubmit(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	if err := h.Lib.DeleteMovie(c.Request().Context(), id, c.Param("movie")); err != nil {
		return h.pageError(c, err)
	}
	return redirect(c, "/users/%d", id)
}

// reviewPage loads user, movie and its reviews for the review pages.
type reviewPage struct {
	UserID   uint64
	UserName string
	Movie    model.Movie
	MovieID  uint64
	Reviews  []model.Review
}

func (h *Handler) loadReviewPage(c echo.Context) (reviewPage, error) {
	if !h.Lib.ReviewsEnabled() {
		return reviewPage{}, service.ErrReviewsUnsupported
	}
	id, name, err := h.userPage(c)
	if err != nil {
		return reviewPage{}, err
	}
	movieID, err := movieIDParam(c)
	if err != nil {
		return reviewPage{}, err
	}
	ctx := c.Request().Context()
	movie, err := h.Lib.GetMovie(ctx, id, c.Param("movie"))
	if err != nil {
		return reviewPage{}, err
	}
	reviews, err := h.Lib.GetReviewsForMovie(ctx, movieID)
	if err != nil {
		return reviewPage{}, err
	}
	return reviewPage{UserID: id, UserName: name, Movie: movie, MovieID: movieID, Reviews: reviews}, nil
}

func (h *Handler) MovieReviewsPage(c echo.Context) error {
	p, err := h.loadReviewPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "movie_reviews.html", echo.Map{
		"UserID":   p.UserID,
		"UserName": p.UserName,
		"Movie":    p.Movie,
		"Reviews":  p.Reviews,
	})
}

func (h *Handler) AddReviewForm(c echo.Context) error {
	p, err := h.loadReviewPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	return c.Render(http.StatusOK, "add_review.html", echo.Map{
		"UserID":  p.UserID,
		"Movie":   p.Movie,
		"Reviews": p.Reviews,
	})
}

// formRating parses a rating field; unparsable input becomes 0, which the
// store rejects as out of range.
func formRating(c echo.Context, field string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.FormValue(field)))
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) AddReviewSubmit(c echo.Context) error {
	p, err := h.loadReviewPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	text := c.FormValue("review_text")
	rating := formRating(c, "rating")
	if _, err := h.Lib.AddReview(c.Request().Context(), p.UserID, p.MovieID, text, rating); err != nil {
		if formError(err) {
			status, msg := statusFor(err)
			return c.Render(status, "add_review.html", echo.Map{
				"UserID":  p.UserID,
				"Movie":   p.Movie,
				"Reviews": p.Reviews,
				"Text":    text,
				"Rating":  c.FormValue("rating"),
				"Error":   msg,
			})
		}
		return h.pageError(c, err)
	}
	return redirect(c, "/users/%d/movies/%s/reviews", p.UserID, p.Movie.Key())
}

func findReview(reviews []model.Review, id uint64) (model.Review, bool) {
	for _, r := range reviews {
		if r.ID == id {
			return r, true
		}
	}
	return model.Review{}, false
}

func (h *Handler) UpdateReviewForm(c echo.Context) error {
	p, err := h.loadReviewPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	reviewID, err := reviewParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	r, ok := findReview(p.Reviews, reviewID)
	if !ok {
		return h.pageError(c, repository.ErrReviewNotFound)
	}
	if r.UserID != p.UserID {
		return h.pageError(c, repository.ErrForbidden)
	}
	return c.Render(http.StatusOK, "update_review.html", echo.Map{
		"UserID":   p.UserID,
		"MovieKey": p.Movie.Key(),
		"ReviewID": r.ID,
		"Text":     r.Text,
		"Rating":   r.Rating,
	})
}

func (h *Handler) UpdateReviewSubmit(c echo.Context) error {
	p, err := h.loadReviewPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	reviewID, err := reviewParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	text := c.FormValue("new_review_text")
	rating := formRating(c, "new_rating")
	if err := h.Lib.UpdateReview(c.Request().Context(), p.UserID, p.MovieID, reviewID, text, rating); err != nil {
		if formError(err) {
			status, msg := statusFor(err)
			return c.Render(status, "update_review.html", echo.Map{
				"UserID":   p.UserID,
				"MovieKey": p.Movie.Key(),
				"ReviewID": reviewID,
				"Text":     text,
				"Rating":   c.FormValue("new_rating"),
				"Error":    msg,
			})
		}
		return h.pageError(c, err)
	}
	return redirect(c, "/users/%d/movies/%s/reviews", p.UserID, p.Movie.Key())
}

func (h *Handler) DeleteReviewSubmit(c echo.Context) error {
	p, err := h.loadReviewPage(c)
	if err != nil {
		return h.pageError(c, err)
	}
	reviewID, err := reviewParam(c)
	if err != nil {
		return h.pageError(c, err)
	}
	if err := h.Lib.DeleteReview(c.Request().Context(), p.UserID, p.MovieID, reviewID); err != nil {
		return h.pageError(c, err)
	}
	return redirect(c, "/users/%d/movies/%s/reviews", p.UserID, p.Movie.Key())
}
