package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
)

// ErrorBody is the response body of every failed request. Business failures
// keep a 200 status and are told apart from successes by this shape.
type ErrorBody struct {
	Error string `json:"error"`
	ID    string `json:"_id,omitempty"`
}

// HTTPErrorHandler is the global error handler for echo.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	if jsonErr := c.JSON(status, body); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}

func mapError(err error) (int, ErrorBody) {
	// Handle echo's own HTTP errors (404, 405, etc.)
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, ErrorBody{Error: msg}
	}

	var issueErr *domain.IssueError
	if errors.As(err, &issueErr) {
		return http.StatusOK, ErrorBody{Error: issueErr.Err.Error(), ID: issueErr.ID}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorBody{Error: "invalid request body"}
	case errors.Is(err, domain.ErrRetrieval):
		return http.StatusInternalServerError, ErrorBody{Error: domain.ErrRetrieval.Error()}
	case errors.Is(err, domain.ErrPersist):
		return http.StatusInternalServerError, ErrorBody{Error: domain.ErrPersist.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal server error"}
	}
}
