// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Aggregation errors
	ErrInvalidRecord = &Error{Code: "INVALID_RECORD", Message: "malformed or mismatched trade record"}
	ErrEmptyWindow   = &Error{Code: "EMPTY_WINDOW", Message: "no active days in window"}

	// Rendering errors
	ErrUnrenderableValue = &Error{Code: "UNRENDERABLE_VALUE", Message: "value cannot be serialized"}

	// Flex Web Service errors
	ErrFlexUpstream = &Error{Code: "FLEX_UPSTREAM", Message: "flex web service request failed"}
	ErrFlexNotReady = &Error{Code: "FLEX_NOT_READY", Message: "statement not ready"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
