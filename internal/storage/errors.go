package storage

import (
	"errors"
	"strings"
)

// ErrAlreadyExists marks a backend error that says the target object is
// already there. Backends wrap driver errors with it when the driver exposes
// a structured code for the condition.
var ErrAlreadyExists = errors.New("object already exists")

// AlreadyExistsError carries the driver's original message alongside the
// ErrAlreadyExists classification.
type AlreadyExistsError struct {
	Err error
}

func (e *AlreadyExistsError) Error() string { return e.Err.Error() }

func (e *AlreadyExistsError) Unwrap() []error { return []error{ErrAlreadyExists, e.Err} }

// IsAlreadyExists reports whether err means the object is already present.
//
// Structured classification (ErrAlreadyExists) wins. Otherwise the error
// text is searched case-insensitively for "already exists", which is the only
// signal some warehouses give.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyExists) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
