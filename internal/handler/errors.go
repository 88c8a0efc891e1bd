package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movieweb/internal/lookup"
	"github.com/iliyamo/movieweb/internal/repository"
	"github.com/iliyamo/movieweb/internal/service"
)

// statusFor maps a failure to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrReviewsUnsupported):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, lookup.ErrInvalidTitle):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, lookup.ErrNotFoundInLookup):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, lookup.ErrLookupFailed):
		return http.StatusBadGateway, lookup.ErrLookupFailed.Error()
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, repository.ErrMovieNotFound):
		return http.StatusNotFound, "movie not found"
	case errors.Is(err, repository.ErrReviewNotFound):
		return http.StatusNotFound, "review not found"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, repository.ErrDuplicateMovie):
		return http.StatusConflict, "movie already exists"
	}
	return http.StatusInternalServerError, "internal error"
}

// apiError writes err as {"error": "..."}.
func (h *Handler) apiError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// pageError renders the error page for err.
func (h *Handler) pageError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.Path()).Error("page failed")
	}
	return h.renderError(c, status, msg)
}

func (h *Handler) renderError(c echo.Context, status int, msg string) error {
	return c.Render(status, "error.html", echo.Map{
		"Status":  http.StatusText(status),
		"Message": msg,
	})
}

// ErrorHandler replaces echo's default handler so unmatched routes and
// binding failures are rendered like handler failures: JSON under /api,
// the error page elsewhere.
func (h *Handler) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		h.Log.WithError(err).WithField("path", c.Request().URL.Path).Error("unhandled error")
	}

	var werr error
	switch {
	case c.Request().Method == http.MethodHead:
		werr = c.NoContent(status)
	case strings.HasPrefix(c.Request().URL.Path, "/api"):
		werr = c.JSON(status, echo.Map{"error": msg})
	default:
		werr = h.renderError(c, status, msg)
	}
	if werr != nil {
		h.Log.WithError(werr).Error("write error response")
	}
}
