// Package handler exposes the JSON API under /api and the server-rendered
// pages. Both call the same service.Library operations; they differ only
// in how results and failures are rendered.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movieweb/internal/repository"
	"github.com/iliyamo/movieweb/internal/service"
)

// Handler bundles the dependencies of every route.
type Handler struct {
	Lib *service.Library
	Log *logrus.Logger
}

// NewHandler panics when lib is nil.
func NewHandler(lib *service.Library, log *logrus.Logger) *Handler {
	if lib == nil {
		panic("nil library passed to NewHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Lib: lib, Log: log}
}

// pathID parses a numeric path parameter. Malformed ids cannot name an
// existing row, so they map to notFound.
func pathID(c echo.Context, name string, notFound error) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return id, nil
}

func userParam(c echo.Context) (uint64, error) {
	return pathID(c, "id", repository.ErrUserNotFound)
}

func movieIDParam(c echo.Context) (uint64, error) {
	return pathID(c, "movie", repository.ErrMovieNotFound)
}

func reviewParam(c echo.Context) (uint64, error) {
	return pathID(c, "review", repository.ErrReviewNotFound)
}
