package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness and whether the configured store has reviews.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"reviews": h.Lib.ReviewsEnabled(),
	})
}
