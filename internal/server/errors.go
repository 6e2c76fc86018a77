package server

import (
	"errors"
	"net/http"
)

// HTTPError is an error with an associated status code and a user-facing message.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	if cause == nil {
		cause = errors.New(message)
	}
	return &HTTPError{cause: cause, Code: code, Message: message}
}

func errBadRequest(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, cause)
}

func errNotFound(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, nil)
}
