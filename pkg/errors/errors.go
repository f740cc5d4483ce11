// Package errors provides structured error types for productlens.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, HTTP API and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Structural errors abort an analysis run:
//   - MALFORMED_MANIFEST: a required top-level manifest key is absent or has the wrong shape
//   - REFERENTIAL_INTEGRITY: an edge references a node missing from the node table
//   - INVALID_INPUT: a caller violated a precondition (e.g. an empty fqn)
//
// UNCLASSIFIABLE_IDENTIFIER is only produced by strict classification and is
// downgraded to an "unattributed" node by the table builders.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedManifest, "missing key %q", "parent_map")
//	if errors.Is(err, errors.ErrCodeMalformedManifest) {
//	    // could not load manifest
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedManifest, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural errors
	ErrCodeMalformedManifest    Code = "MALFORMED_MANIFEST"
	ErrCodeReferentialIntegrity Code = "REFERENTIAL_INTEGRITY"
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeUnclassifiable       Code = "UNCLASSIFIABLE_IDENTIFIER"
	ErrCodeInvalidFormat        Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig        Code = "INVALID_CONFIG"
	ErrCodeInvalidIdentifier    Code = "INVALID_IDENTIFIER"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeProductNotFound Code = "PRODUCT_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

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
// The outermost *Error wins, so wrapping an error with a new code replaces it.
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
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsStructural reports whether err aborts an analysis run rather than
// degrading a single node.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedManifest, ErrCodeReferentialIntegrity, ErrCodeInvalidInput:
		return true
	}
	return false
}
