// Package apperror defines the application's error taxonomy.
//
// Services return these instead of raw storage or network errors; the HTTP
// layer maps them to status codes in one place (handler.writeError). Callers
// branch with errors.Is against the sentinel values below; AppError
// implements Unwrap so a wrapped chain still matches.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. One per failure kind the rest of the system cares about.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrBackend          = errors.New("storage failure")
	ErrExternal         = errors.New("external service failure")
)

// AppError pairs a sentinel with a human-readable message. The message is
// safe to show to an end user; the wrapped cause is for logs only.
type AppError struct {
	Err     error  // sentinel (and optionally the original cause chained below it)
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotAuthenticated returns an AppError for operations that require a session
// when none is present. HTTP handlers map this to 401.
func NotAuthenticated(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{Err: ErrNotAuthenticated, Message: message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Backend wraps a storage failure. The original error stays on the chain
// (errors.Is finds both ErrBackend and the cause) but the message shown to
// callers names only the operation, never driver internals.
func Backend(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrBackend, op, cause),
		Message: fmt.Sprintf("the %s operation failed, please try again", op),
	}
}

// External wraps a failure from a collaborator outside our control (chat
// completion, text-to-speech). Maps to 502 at the HTTP layer so callers can
// tell "we broke" from "they broke".
func External(service string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrExternal, service, cause),
		Message: fmt.Sprintf("the %s service is unavailable", service),
	}
}
