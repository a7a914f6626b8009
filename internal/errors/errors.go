// Package errors defines coded application errors shared by the bot service,
// the HTTP procedures and the MCP tools.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown      = "UNKNOWN"
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodePlatform     = "PLATFORM"
	CodeDatabase     = "DATABASE"
	CodeConfig       = "CONFIG"
	CodeUnauthorized = "UNAUTHORIZED"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error is a message tagged with one of the Code* constants.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

func newError(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

func NewValidationError(message string, cause error) error {
	return newError(CodeValidation, message, cause)
}

func NewNotFoundError(message string) error {
	return newError(CodeNotFound, message, nil)
}

// NewPlatformError wraps a failure returned by the bot platform API.
func NewPlatformError(message string, cause error) error {
	return newError(CodePlatform, message, cause)
}

func NewDatabaseError(message string, cause error) error {
	return newError(CodeDatabase, message, cause)
}

func NewConfigError(message string, cause error) error {
	return newError(CodeConfig, message, cause)
}

func NewUnauthorizedError(message string) error {
	return newError(CodeUnauthorized, message, nil)
}
