// Package router registers the routes of the application on an echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/handler"
)

// RegisterRoutes registers the health check and the server-rendered pages.
// mw (typically the rate limiter) wraps every page but not the health check.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, mw ...echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health)

	e.GET("/", h.Home, mw...)
	e.GET("/users", h.UsersPage, mw...)
	e.GET("/add_user", h.AddUserForm, mw...)
	e.POST("/add_user", h.AddUserSubmit, mw...)

	u := e.Group("/users/:id", mw...)
	u.GET("", h.UserMoviesPage)
	u.GET("/delete_user", h.DeleteUserForm)
	u.POST("/delete_user", h.DeleteUserSubmit)
	u.GET("/add_movie", h.AddMovieForm)
	u.POST("/add_movie", h.AddMovieSubmit)
	u.GET("/update_movie/:movie", h.UpdateMovieForm)
	u.POST("/update_movie/:movie", h.UpdateMovieSubmit)
	u.POST("/delete_movie/:movie", h.DeleteMovieSubmit)

	u.GET("/movies/:movie/reviews", h.MovieReviewsPage)
	u.GET("/add_review/:movie", h.AddReviewForm)
	u.POST("/add_review/:movie", h.AddReviewSubmit)
	u.GET("/movies/:movie/update_review/:review", h.UpdateReviewForm)
	u.POST("/movies/:movie/update_review/:review", h.UpdateReviewSubmit)
	u.POST("/delete_review/:movie/:review", h.DeleteReviewSubmit)
}
