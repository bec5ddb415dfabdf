// Package errors defines the sentinel errors shared by the index, the
// answer pipeline and the HTTP layer, and maps them to responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrIndexNotLoaded   = errors.New("index not loaded")
	ErrEmptyIndex       = errors.New("index contains no snippets")
	ErrMalformedSnippet = errors.New("malformed snippet")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

// AppError attaches a status code and a client-facing message to a
// sentinel. Message is sent to clients as is; the sentinel is matched
// with errors.Is.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// responses maps sentinels to a status and a message safe to return to
// clients. The first match wins.
var responses = []struct {
	err     error
	status  int
	message string
}{
	{ErrInvalidInput, http.StatusBadRequest, "invalid input"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate limit exceeded"},
	{ErrTimeout, http.StatusServiceUnavailable, "request timeout"},
	{ErrIndexNotLoaded, http.StatusServiceUnavailable, "index not loaded"},
}

// HTTPStatusCode returns the status for err: an AppError's own code, the
// code of a known sentinel, or 500.
func HTTPStatusCode(err error) int {
	status, _ := describe(err)
	return status
}

// PublicMessage returns the message to show a client for err. Errors that
// match nothing known become "internal error" so internals never leak.
func PublicMessage(err error) string {
	_, message := describe(err)
	return message
}

func describe(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, appErr.Message
	}
	for _, r := range responses {
		if errors.Is(err, r.err) {
			return r.status, r.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}
