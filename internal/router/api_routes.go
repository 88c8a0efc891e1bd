package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/handler"
	"github.com/iliyamo/movieweb/internal/middleware"
)

// RegisterAPI registers the JSON API under /api. With a non-empty
// jwtSecret every route needs a bearer token: admins may do anything,
// users may act only as themselves and may not create users. mw runs
// after authentication, so a rate limiter sees the caller's user id.
func RegisterAPI(e *echo.Echo, h *handler.Handler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	api := e.Group("/api")

	var (
		adminOnly []echo.MiddlewareFunc
		self      []echo.MiddlewareFunc
	)
	if jwtSecret != "" {
		api.Use(middleware.JWTAuth(jwtSecret))
		api.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleUser))
		adminOnly = append(adminOnly, middleware.RequireRole(middleware.RoleAdmin))
		self = append(self, middleware.RequireSelf("id"))
	}
	api.Use(mw...)

	api.GET("/users", h.ListUsers)
	api.POST("/users", h.AddUser, adminOnly...)

	u := api.Group("/users/:id", self...)
	u.DELETE("", h.DeleteUser)
	u.GET("/movies", h.ListMovies)
	u.POST("/movies", h.AddMovie)
	u.PUT("/movies/:movie", h.UpdateMovie)
	u.DELETE("/movies/:movie", h.DeleteMovie)

	u.GET("/movies/:movie/reviews", h.ListReviews)
	u.POST("/movies/:movie/reviews", h.AddReview)
	u.PUT("/movies/:movie/reviews/:review", h.UpdateReview)
	u.DELETE("/movies/:movie/reviews/:review", h.DeleteReview)
}
