package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the lifecycle engine's failure taxonomy.
var (
	// ErrConflict covers slot, weekly-student and weekly-teacher collisions.
	ErrConflict = New("SCHEDULE_CONFLICT", http.StatusConflict, "scheduling conflict")
	// ErrOverlap marks a term that would start before the prior term ended.
	ErrOverlap = New("TERM_OVERLAP", http.StatusConflict, "term overlaps previous term")
	// ErrIntegrity surfaces a store-level uniqueness violation lost to a race.
	ErrIntegrity = New("INTEGRITY_VIOLATION", http.StatusConflict, "record already exists")
	ErrNotFound  = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	// ErrTransport marks a failed outbound SMS; never rolls back the write that triggered it.
	ErrTransport  = New("TRANSPORT_FAILED", http.StatusBadGateway, "notification transport failed")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as the given sentinel.
func Is(err error, sentinel *Error) bool {
	e := FromError(err)
	return e != nil && sentinel != nil && e.Code == sentinel.Code
}
