// Package apperror defines the error taxonomy shared by the checkout service
// and its offline terminal client.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks a caller error. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrSubscriptionExpired is returned when the tenant's gate is closed.
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyProcessed    = errors.New("already processed")

	// ErrTransient means the server could not be reached. The terminal
	// buffers the request and retries on the next online transition.
	ErrTransient = errors.New("transient network failure")
	// ErrRejected means the server answered with a non-success status.
	ErrRejected = errors.New("request rejected")
)

type Response struct {
	Error string `json:"error"`
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error onto the status code the API returns for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrAlreadyProcessed):
		return http.StatusBadRequest
	case errors.Is(err, ErrSubscriptionExpired):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// StatusError is a non-2xx answer decoded by the terminal's API client.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.Code, e.Message)
}

// Unwrap lets callers match both ErrRejected and the sentinel the status
// code maps back to.
func (e *StatusError) Unwrap() []error {
	errs := []error{ErrRejected}
	switch e.Code {
	case http.StatusForbidden:
		errs = append(errs, ErrSubscriptionExpired)
	case http.StatusNotFound:
		errs = append(errs, ErrNotFound)
	case http.StatusBadRequest:
		errs = append(errs, ErrValidation)
	}
	return errs
}
