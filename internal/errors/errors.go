package errors

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("User with this email already exists")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrInvalidRefreshToken covers every refresh failure: bad signature, expiry, rotation, logout.
	ErrInvalidRefreshToken = errors.New("Invalid refresh token")
	// ErrInactiveUser is returned when an authenticated user was removed or deactivated.
	ErrInactiveUser = errors.New("User not found or inactive")
	// ErrAccountLocked is the target of errors.Is for *AccountLockedError.
	ErrAccountLocked = errors.New("account is locked")
	// ErrForbidden is returned when the caller's role is below the route's minimum,
	// or below the role of the account being changed.
	ErrForbidden = errors.New("Insufficient permissions")
	// ErrUserNotFound is returned by admin lookups of a missing user.
	ErrUserNotFound = errors.New("User not found")
	// ErrTooManyRequests is returned by the login throttle.
	ErrTooManyRequests = errors.New("Too many requests, please try again later")
)

// AccountLockedError reports an active lockout and how long it still lasts.
type AccountLockedError struct {
	Remaining time.Duration
}

// Minutes is the remaining lock time rounded up to whole minutes.
func (e *AccountLockedError) Minutes() int {
	return int(math.Ceil(e.Remaining.Minutes()))
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("Account is locked. Try again in %d minutes", e.Minutes())
}

// Is makes errors.Is(err, ErrAccountLocked) match.
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// ErrorBody is the error part of the response envelope.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
	Meta    Meta      `json:"meta"`
}

// Meta carries request metadata in every envelope.
type Meta struct {
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    interface{}
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse(path string, now time.Time) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
		Meta: Meta{
			Timestamp: now.UTC().Format(time.RFC3339),
			Path:      path,
		},
	}
}

// CodeForStatus returns the envelope code used for a bare HTTP status.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var locked *AccountLockedError
	if errors.As(err, &locked) {
		return NewHTTPError(http.StatusUnauthorized, locked.Error(), "UNAUTHORIZED")
	}

	switch {
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, ErrEmailTaken.Error(), "CONFLICT")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidRefreshToken.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInactiveUser):
		return NewHTTPError(http.StatusUnauthorized, ErrInactiveUser.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "NOT_FOUND")
	case errors.Is(err, ErrTooManyRequests):
		return NewHTTPError(http.StatusTooManyRequests, ErrTooManyRequests.Error(), "TOO_MANY_REQUESTS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
