// Package errors defines the sentinel errors shared by the corpus services
// and the AppError wrapper that carries an HTTP status alongside a sentinel.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDuplicateEvent   = errors.New("comment already exists")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNoOccurrences    = errors.New("no occurrences in range")
	ErrNotFound         = errors.New("not found")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrTimeout          = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Invalid reports a rejected argument. It is the constructor used by every
// validation path so that callers can test with errors.Is(err, ErrInvalidArgument).
func Invalid(format string, args ...any) *AppError {
	return Newf(ErrInvalidArgument, http.StatusBadRequest, format, args...)
}

// Mismatch reports an unrecognised variant or statistic, or a gram built
// from tokens of different variants. The returned error matches both
// ErrTypeMismatch and ErrInvalidArgument.
func Mismatch(format string, args ...any) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrInvalidArgument, ErrTypeMismatch),
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoOccurrences):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateEvent):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrCacheUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
