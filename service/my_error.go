package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that the requested file or directory is absent under the served root.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared.
	ErrBadParameter = "bad_parameter"
	// ErrMethodNotAllowed means that the listener only answers GET and HEAD.
	ErrMethodNotAllowed = "method_not_allowed"
	// ErrNameConflict means that every candidate mDNS instance name is already taken on the LAN.
	ErrNameConflict = "name_conflict"
)

// FrontendError represents an error within the context of the frontend server.
type FrontendError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to HTTP clients.
	Inner error `json:"-"`
}

// NewFrontendError creates a new FrontendError.
func NewFrontendError(code string, message string, inner error) *FrontendError {
	return &FrontendError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

func NewInternalServerError(message string, inner error) *FrontendError {
	if fe := ToFrontendError(inner); fe != nil {
		return fe
	}

	return NewFrontendError(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *FrontendError {
	if fe := ToFrontendError(inner); fe != nil {
		return fe
	}

	return NewFrontendError(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *FrontendError {
	if fe := ToFrontendError(inner); fe != nil {
		return fe
	}

	return NewFrontendError(ErrBadParameter, message, inner)
}

func NewNameConflictError(message string, inner error) *FrontendError {
	return NewFrontendError(ErrNameConflict, message, inner)
}

func (e FrontendError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e FrontendError) Unwrap() error {
	return e.Inner
}

// ToFrontendError returns a pointer to a frontend error, or nil if err is not one.
func ToFrontendError(err error) *FrontendError {
	var e *FrontendError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToErrorCode returns the code of the error, if available.
func ToErrorCode(err error) string {
	if fe := ToFrontendError(err); fe != nil {
		return fe.Code
	}
	return ""
}

func IsFrontendError(err error, code string) bool {
	if fe := ToFrontendError(err); fe != nil {
		return fe.Code == code
	}
	return false
}

func IsInternalServerError(err error) bool {
	return IsFrontendError(err, ErrInternalServerError)
}

func IsEntityNotFoundError(err error) bool {
	return IsFrontendError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsFrontendError(err, ErrBadParameter)
}

func IsNameConflictError(err error) bool {
	return IsFrontendError(err, ErrNameConflict)
}
