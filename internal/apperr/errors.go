// Package apperr defines the error kinds shared by the document and lock
// managers. Callers wrap a kind with context using fmt.Errorf("%w: ...") and
// classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrLocked      = errors.New("locked")
	ErrForbidden   = errors.New("forbidden")
	ErrBadRequest  = errors.New("bad request")
	ErrUnavailable = errors.New("store unavailable")
)

// Store wraps a storage failure as ErrUnavailable while keeping the cause
// reachable for logging.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// HTTPStatus maps an error kind to the response code used by the handlers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrLocked):
		return http.StatusLocked
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message returns the text safe to show to a client. Store and internal
// failures are reduced to a generic message.
func Message(err error) string {
	switch HTTPStatus(err) {
	case http.StatusServiceUnavailable:
		return "storage temporarily unavailable"
	case http.StatusInternalServerError:
		return "internal error"
	}
	return err.Error()
}
