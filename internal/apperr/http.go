package apperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler maps taxonomy errors to HTTP statuses. Anything outside
// the taxonomy is a 500 with a generic body so internals never leak.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, ErrAlreadyExists):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrAuthentication):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	default:
		slog.Error("unhandled error", "error", err, "path", c.Path())
	}

	if err := c.JSON(status, map[string]string{"error": message}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
