package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/service"
)

type addUserRequest struct {
	Username string `json:"username" form:"username"`
}

// addMovieRequest adds a movie directly from its fields, or through the
// metadata lookup when LookupTitle is set.
type addMovieRequest struct {
	LookupTitle string `json:"lookup_title"`
	model.MovieInput
}

type updateMovieRequest struct {
	Title  string `json:"title"`
	Rating string `json:"rating"`
}

type reviewRequest struct {
	Text   string `json:"review_text"`
	Rating int    `json:"rating"`
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.Lib.ListUsers(c.Request().Context())
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// AddUser handles POST /api/users.
func (h *Handler) AddUser(c echo.Context) error {
	var req addUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	id, err := h.Lib.AddUser(c.Request().Context(), req.Username)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusCreated, model.UserSummary{ID: id, Username: strings.TrimSpace(req.Username)})
}

// DeleteUser handles DELETE /api/users/:id.
func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	if err := h.Lib.DeleteUser(c.Request().Context(), id); err != nil {
		return h.apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMovies handles GET /api/users/:id/movies.
func (h *Handler) ListMovies(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	movies, err := h.Lib.GetUserMovies(c.Request().Context(), id)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// AddMovie handles POST /api/users/:id/movies.
func (h *Handler) AddMovie(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	var req addMovieRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}

	ctx := c.Request().Context()
	if strings.TrimSpace(req.LookupTitle) != "" {
		key, rec, err := h.Lib.AddMovieByTitle(ctx, id, req.LookupTitle)
		if err != nil {
			return h.apiError(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{
			"message":   "Movie added successfully",
			"movie_key": key,
			"movie":     rec,
		})
	}

	key, err := h.Lib.AddMovie(ctx, id, req.MovieInput)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Movie added successfully",
		"movie_key": key,
	})
}

// UpdateMovie handles PUT /api/users/:id/movies/:movie.
func (h *Handler) UpdateMovie(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	var req updateMovieRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	res, err := h.Lib.UpdateMovie(c.Request().Context(), id, c.Param("movie"), req.Title, req.Rating)
	if err != nil {
		return h.apiError(c, err)
	}
	if !res.OK() {
		return h.apiError(c, res.Err())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie updated successfully"})
}

// DeleteMovie handles DELETE /api/users/:id/movies/:movie.
func (h *Handler) DeleteMovie(c echo.Context) error {
	id, err := userParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	if err := h.Lib.DeleteMovie(c.Request().Context(), id, c.Param("movie")); err != nil {
		return h.apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListReviews handles GET /api/users/:id/movies/:movie/reviews.
// The user in the path must exist, like on every other /users/:id route.
func (h *Handler) ListReviews(c echo.Context) error {
	userID, movieID, err := h.reviewTarget(c)
	if err != nil {
		return h.apiError(c, err)
	}
	ctx := c.Request().Context()
	if _, err := h.Lib.GetUserName(ctx, userID); err != nil {
		return h.apiError(c, err)
	}
	reviews, err := h.Lib.GetReviewsForMovie(ctx, movieID)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// AddReview handles POST /api/users/:id/movies/:movie/reviews.
func (h *Handler) AddReview(c echo.Context) error {
	userID, movieID, err := h.reviewTarget(c)
	if err != nil {
		return h.apiError(c, err)
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	id, err := h.Lib.AddReview(c.Request().Context(), userID, movieID, req.Text, req.Rating)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"review_id": id})
}

// UpdateReview handles PUT /api/users/:id/movies/:movie/reviews/:review.
func (h *Handler) UpdateReview(c echo.Context) error {
	userID, movieID, err := h.reviewTarget(c)
	if err != nil {
		return h.apiError(c, err)
	}
	reviewID, err := reviewParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	if err := h.Lib.UpdateReview(c.Request().Context(), userID, movieID, reviewID, req.Text, req.Rating); err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review updated successfully"})
}

// DeleteReview handles DELETE /api/users/:id/movies/:movie/reviews/:review.
func (h *Handler) DeleteReview(c echo.Context) error {
	userID, movieID, err := h.reviewTarget(c)
	if err != nil {
		return h.apiError(c, err)
	}
	reviewID, err := reviewParam(c)
	if err != nil {
		return h.apiError(c, err)
	}
	if err := h.Lib.DeleteReview(c.Request().Context(), userID, movieID, reviewID); err != nil {
		return h.apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// reviewTarget parses :id and :movie. The reviews check comes first so a
// flat-file store answers 501 regardless of how its movie keys look.
func (h *Handler) reviewTarget(c echo.Context) (uint64, uint64, error) {
	if !h.Lib.ReviewsEnabled() {
		return 0, 0, service.ErrReviewsUnsupported
	}
	userID, err := userParam(c)
	if err != nil {
		return 0, 0, err
	}
	movieID, err := movieIDParam(c)
	if err != nil {
		return 0, 0, err
	}
	return userID, movieID, nil
}
