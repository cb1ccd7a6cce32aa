package model

import (
	"errors"
	"fmt"
)

// Input errors are returned before any search starts; errors.Is works against these kinds
var (
	ErrInvalidCourse  = errors.New("invalid course")
	ErrInvalidFaculty = errors.New("invalid faculty")
	ErrInvalidRoom    = errors.New("invalid room")
	ErrInvalidGrid    = errors.New("invalid grid")
	ErrInvalidConfig  = errors.New("invalid config")
)

type InputError struct {
	Kind   error
	Key    string // Course code, faculty id or room id the error refers to (if any)
	Reason string
}

func (err *InputError) Error() string {
	if err.Key == "" {
		return fmt.Sprintf("%v: %v", err.Kind, err.Reason)
	}
	return fmt.Sprintf("%v %q: %v", err.Kind, err.Key, err.Reason)
}

func (err *InputError) Unwrap() error {
	return err.Kind
}

func invalid(kind error, key string, format string, args ...any) error {
	return &InputError{
		Kind:   kind,
		Key:    key,
		Reason: fmt.Sprintf(format, args...),
	}
}
