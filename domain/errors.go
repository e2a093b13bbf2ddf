package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrProfileNotFound  = NewError(ErrCodeNotFound, "profile not found")
	ErrTaskNotFound     = NewError(ErrCodeNotFound, "task not found")
	ErrTaskTypeNotFound = NewError(ErrCodeNotFound, "task type not found")
	ErrSessionNotFound  = NewError(ErrCodeNotFound, "session not found")
	ErrExportNotFound   = NewError(ErrCodeNotFound, "scheduled export not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")

	// ErrInvalidTaskType is returned when a task type id does not resolve for
	// the user or points at an archived type. Always raised before any mutation.
	ErrInvalidTaskType = NewError(ErrCodeInvalid, "task type missing, archived, or not owned by user")

	// ErrNoActiveTask is returned by stop when the user has no open task.
	ErrNoActiveTask = NewError(ErrCodeConflict, "no active task to stop")
)

// AlreadyTrackingError is returned by start when the user already has an open
// task. It carries the open task's identity so callers can offer an interrupt.
type AlreadyTrackingError struct {
	TaskID     string
	TaskTypeID string
}

func (e *AlreadyTrackingError) Error() string {
	return fmt.Sprintf("already tracking task %s (type %s); stop or interrupt it first", e.TaskID, e.TaskTypeID)
}

// NewTransientStoreError classifies a storage failure as retryable. The atomic
// unit guarantees no partial state was left behind.
func NewTransientStoreError(err error) *Error {
	return WrapError(ErrCodeUnavailable, "tracking store temporarily unavailable", err)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsAlreadyTracking reports whether err is an AlreadyTrackingError.
func IsAlreadyTracking(err error) bool {
	var atErr *AlreadyTrackingError
	return errors.As(err, &atErr)
}
