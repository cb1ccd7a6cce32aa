package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/campusgrid/timetabling/pkg/model"
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

// Predefined errors for common scenarios.
var (
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidCourse  = New("INVALID_COURSE", http.StatusBadRequest, "invalid course")
	ErrInvalidFaculty = New("INVALID_FACULTY", http.StatusBadRequest, "invalid faculty")
	ErrInvalidRoom    = New("INVALID_ROOM", http.StatusBadRequest, "invalid room")
	ErrInvalidGrid    = New("INVALID_GRID", http.StatusBadRequest, "invalid grid")
	ErrInvalidConfig  = New("INVALID_CONFIG", http.StatusBadRequest, "invalid scheduler configuration")
	ErrTimeout        = New("TIMEOUT", http.StatusGatewayTimeout, "schedule computation timed out")
	ErrCancelled      = New("CANCELLED", http.StatusServiceUnavailable, "schedule computation cancelled")
	ErrUnavailable    = New("UNAVAILABLE", http.StatusServiceUnavailable, "dependency unavailable")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

var domainErrors = []struct {
	sentinel error
	mapped   *Error
}{
	{model.ErrInvalidCourse, ErrInvalidCourse},
	{model.ErrInvalidFaculty, ErrInvalidFaculty},
	{model.ErrInvalidRoom, ErrInvalidRoom},
	{model.ErrInvalidGrid, ErrInvalidGrid},
	{model.ErrInvalidConfig, ErrInvalidConfig},
	{context.DeadlineExceeded, ErrTimeout},
	{context.Canceled, ErrCancelled},
}

// FromError normalises any error into an *Error.
// Input taxonomy errors keep their own message so callers see which record was rejected.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, domain := range domainErrors {
		if !errors.Is(err, domain.sentinel) {
			continue
		}
		var inputError *model.InputError
		if errors.As(err, &inputError) {
			return Wrap(err, domain.mapped.Code, domain.mapped.Status, inputError.Error())
		}
		return Wrap(err, domain.mapped.Code, domain.mapped.Status, domain.mapped.Message)
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
