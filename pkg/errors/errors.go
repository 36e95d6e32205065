// Package errors provides structured error types for qsimplify.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP layer and the engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Caller bugs and input validation failures
//   - NOT_FOUND: Resource not found
//   - BUDGET_EXCEEDED: A simplification run hit its permutation or time budget
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPattern, "pattern %q has no anchor", name)
//	if errors.Is(err, errors.ErrCodeInvalidPattern) {
//	    // Handle invalid rule
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidRuleDocument, origErr, "entry %d", i)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidGraphOp      Code = "INVALID_GRAPH_OP"
	ErrCodeInvalidPattern      Code = "INVALID_PATTERN"
	ErrCodeInvalidRuleDocument Code = "INVALID_RULE_DOCUMENT"
	ErrCodeInvalidCircuit      Code = "INVALID_CIRCUIT"
	ErrCodeInvalidFormat       Code = "INVALID_FORMAT"
	ErrCodeInvalidPath         Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Resource limits
	ErrCodeBudgetExceeded Code = "BUDGET_EXCEEDED"
	ErrCodeTimeout        Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// The outermost *Error in the chain decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IndexedError reports a failure tied to one entry of an ordered input,
// such as a rule in a rule document or an instruction in a circuit.
type IndexedError struct {
	Index int    // Zero-based position of the offending entry
	Field string // Optional field or sub-entry description
	Err   error
}

// Error implements the error interface.
func (e *IndexedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

// Unwrap returns the wrapped error.
func (e *IndexedError) Unwrap() error { return e.Err }
