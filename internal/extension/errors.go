package extension

import (
	"errors"
	"fmt"
)

// Error is an execution-time domain error raised by a runtime function.
//
// These are the errors a generated traversal can reach when it runs. The
// translator only guarantees the shape that reaches them; it never raises
// them itself.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes execution-time errors.
type ErrorCode string

const (
	// ErrCodeCannotConvert indicates a cast of a structurally incompatible value.
	ErrCodeCannotConvert ErrorCode = "CANNOT_CONVERT"

	// ErrCodePercentileRange indicates a percentile fraction outside [0, 1].
	ErrCodePercentileRange ErrorCode = "PERCENTILE_RANGE"

	// ErrCodeInvalidRange indicates a zero step or non-integer range bound.
	ErrCodeInvalidRange ErrorCode = "INVALID_RANGE"

	// ErrCodeDivisionByZero indicates integer division or modulo by zero.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeDeleteConnectedNode indicates a non-detach delete of a node
	// that still has relationships.
	ErrCodeDeleteConnectedNode ErrorCode = "DELETE_CONNECTED_NODE"

	// ErrCodeDeletedElementAccess indicates property or label access on an
	// element deleted earlier in the same query.
	ErrCodeDeletedElementAccess ErrorCode = "DELETED_ELEMENT_ACCESS"

	// ErrCodeInvalidArgument indicates an argument of the wrong type.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

var messages = map[ErrorCode]string{
	ErrCodeDivisionByZero:       "/ by zero",
	ErrCodeDeleteConnectedNode:  "Cannot delete node, because it still has relationships. To delete this node, you must first delete its relationships.",
	ErrCodeDeletedElementAccess: "Deleted entity access",
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewError builds the error raised by cypherException for code.
func NewError(code ErrorCode) *Error {
	msg, ok := messages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg}
}

// HasCode returns true if err is or wraps an Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsCastError returns true if err is a failed cast.
func IsCastError(err error) bool {
	return HasCode(err, ErrCodeCannotConvert)
}
