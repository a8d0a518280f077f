package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "crm/internal/errors"
)

// SuccessResponse is the envelope around every successful payload.
type SuccessResponse struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data"`
	Meta    apperrors.Meta `json:"meta"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, SuccessResponse{
		Success: true,
		Data:    data,
		Meta: apperrors.Meta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request().URL.Path,
		},
	})
}

func badRequest(message string) error {
	return apperrors.NewHTTPError(http.StatusBadRequest, message, "BAD_REQUEST")
}

// NewErrorHandler renders every error as the error envelope. Unexpected errors are
// logged and reported as a generic 500.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *apperrors.HTTPError
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &echoErr):
			httpErr = apperrors.NewHTTPError(echoErr.Code, fmt.Sprint(echoErr.Message), apperrors.CodeForStatus(echoErr.Code))
		default:
			httpErr = apperrors.MapErrorToHTTP(err)
		}

		req := c.Request()
		if httpErr.StatusCode >= http.StatusInternalServerError {
			logger.ErrorContext(req.Context(), "request failed",
				"error", err, "method", req.Method, "path", req.URL.Path)
		}

		if req.Method == http.MethodHead {
			_ = c.NoContent(httpErr.StatusCode)
			return
		}
		_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse(req.URL.Path, time.Now()))
	}
}
