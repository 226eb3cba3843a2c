// Package errors provides standardized error types for DataFrame operations.
// This package defines DataFrameError for consistent error handling across
// all public APIs, with operation context, an error class and wrapping support.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error classes. Every DataFrameError carries one of these as its Kind so
// callers can branch with errors.Is without parsing messages.
var (
	// ErrInvalidConfig marks an invalid or incomplete option combination.
	ErrInvalidConfig = stderrors.New("invalid configuration")
	// ErrTypeMismatch marks incompatible value kinds or an unsupported dtype.
	ErrTypeMismatch = stderrors.New("type mismatch")
	// ErrShapeMismatch marks length or column count mismatches.
	ErrShapeMismatch = stderrors.New("shape mismatch")
	// ErrColumnNotFound marks a reference to a missing column.
	ErrColumnNotFound = stderrors.New("column not found")
	// ErrDuplicateColumn marks a duplicate column name.
	ErrDuplicateColumn = stderrors.New("duplicate column")
	// ErrOutOfBounds marks an index outside the valid range.
	ErrOutOfBounds = stderrors.New("index out of bounds")
	// ErrDecode marks a malformed encoded payload.
	ErrDecode = stderrors.New("decode error")
	// ErrInternal marks a failure inside the engine.
	ErrInternal = stderrors.New("internal error")
)

// DataFrameError represents standardized errors across all DataFrame operations
type DataFrameError struct {
	Op      string // Operation name (e.g., "Sort", "Join", "FillNull")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Kind    error  // Error class, one of the Err* sentinels
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *DataFrameError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, msg)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, msg)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DataFrameError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// An error matches its own Kind as well as a DataFrameError with the same
// operation, column and message.
func (e *DataFrameError) Is(target error) bool {
	if e.Kind != nil && target == e.Kind {
		return true
	}
	if df, ok := target.(*DataFrameError); ok {
		return e.Op == df.Op && e.Column == df.Column && e.Message == df.Message
	}
	return false
}

// KindOf returns the error class of err, or nil when err is not a DataFrameError.
func KindOf(err error) error {
	var dfErr *DataFrameError
	if stderrors.As(err, &dfErr) {
		return dfErr.Kind
	}
	return nil
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
		Kind:    ErrColumnNotFound,
	}
}

// NewDuplicateColumnError creates an error for a repeated column name
func NewDuplicateColumnError(op, column string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: "column name is not unique",
		Kind:    ErrDuplicateColumn,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: message,
		Kind:    ErrInvalidConfig,
	}
}

// NewConfigError creates an error for an invalid option combination
func NewConfigError(op, format string, args ...any) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Kind:    ErrInvalidConfig,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Kind:    ErrTypeMismatch,
	}
}

// NewTypeMismatchError creates an error for incompatible value kinds
func NewTypeMismatchError(op, column, format string, args ...any) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
		Kind:    ErrTypeMismatch,
	}
}

// NewShapeError creates an error for mismatched lengths or widths
func NewShapeError(op string, expected, actual int) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: fmt.Sprintf("expected length %d, got %d", expected, actual),
		Kind:    ErrShapeMismatch,
	}
}

// NewOutOfBoundsError creates an error for an index outside [0, length)
func NewOutOfBoundsError(op string, index, length int) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: fmt.Sprintf("index %d out of bounds for length %d", index, length),
		Kind:    ErrOutOfBounds,
	}
}

// NewDecodeError creates an error for a malformed payload
func NewDecodeError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: "malformed input",
		Kind:    ErrDecode,
		Cause:   cause,
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    ErrShapeMismatch,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: "internal error occurred",
		Kind:    ErrInternal,
		Cause:   cause,
	}
}
