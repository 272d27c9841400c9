// Package apperr holds the error kinds shared by every domain package.
// Domain code declares its own sentinels built from these kinds, and the
// transport layer maps a kind to a status code with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidState        = errors.New("invalid state")
	ErrImmutable           = errors.New("immutable record")
	ErrForbidden           = errors.New("forbidden")
)

type Error struct {
	Kind    error
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation reports bad input for a named field.
func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Code: "validation_error", Field: field, Message: message}
}

func NotFound(code, message string) *Error {
	return New(ErrNotFound, code, message)
}

func Duplicate(code, message string) *Error {
	return New(ErrDuplicate, code, message)
}

func InvalidState(code, message string) *Error {
	return New(ErrInvalidState, code, message)
}

func Immutable(code, message string) *Error {
	return New(ErrImmutable, code, message)
}

func Forbidden(code, message string) *Error {
	return New(ErrForbidden, code, message)
}

// As returns the *Error carried by err, if any.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
