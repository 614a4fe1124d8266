package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input, caught before any write
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates an access-policy denial
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrInvalidTransition is returned when a request transition is attempted
	// from a non-pending state, including losing a compare-and-set race.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTransient marks retryable failures during auto-save. The draft
	// auto-saver absorbs these into a status flag instead of propagating
	// them to the caller.
	ErrTransient = errors.New("transient failure")
)

// ConflictError represents a resource conflict with details about the
// existing resource (e.g. a pending update request already covering an
// article).
type ConflictError struct {
	Message      string
	ResourceType string // "request", "pending_article", ...
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StateError reports a request transition attempted from a non-pending
// state. The refused transition performs no side effect.
type StateError struct {
	RequestID string
	Attempted string // target state that was refused
}

func (e *StateError) Error() string {
	return "request " + e.RequestID + " is not pending, cannot transition to " + e.Attempted
}

func (e *StateError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrInvalidTransition
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidTransition
}
