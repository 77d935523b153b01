// Package errors provides structured error types for formstore.
// All errors include a category, code, message, and retryable flag so callers
// can tell fatal schema errors from per-value and resolution failures.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by failure channel.
type ErrorCategory string

const (
	ErrCategorySchema     ErrorCategory = "SCHEMA"
	ErrCategoryValue      ErrorCategory = "VALUE"
	ErrCategoryResolution ErrorCategory = "RESOLUTION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Schema codes
	CodeMissingElementKey    = "MISSING_ELEMENT_KEY"
	CodeElementKeyTooLong    = "ELEMENT_KEY_TOO_LONG"
	CodeElementKeyUnderscore = "ELEMENT_KEY_UNDERSCORE"
	CodeElementKeyReserved   = "ELEMENT_KEY_RESERVED"
	CodeDuplicateElementKey  = "DUPLICATE_ELEMENT_KEY"
	CodeInvalidElementPath   = "INVALID_ELEMENT_PATH"
	CodeMalformedDefinition  = "MALFORMED_DEFINITION"

	// Value codes
	CodeNullNotAllowed    = "NULL_NOT_ALLOWED"
	CodeEmptyString       = "EMPTY_STRING"
	CodeNonInteger        = "NON_INTEGER"
	CodeNotAList          = "NOT_A_LIST"
	CodeUnrecognizedShape = "UNRECOGNIZED_SHAPE"
	CodeBadDateTime       = "BAD_DATETIME"
	CodeEmptyPathSegment  = "EMPTY_PATH_SEGMENT"
	CodeUnknownElementKey = "UNKNOWN_ELEMENT_KEY"

	// Resolution codes
	CodeUnresolvedElementPath = "UNRESOLVED_ELEMENT_PATH"

	// Storage codes
	CodeObjectNotFound     = "OBJECT_NOT_FOUND"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeReadFailed         = "READ_FAILED"
	CodeWriteFailed        = "WRITE_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// FormError is the structured error type used throughout formstore.
type FormError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *FormError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *FormError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *FormError) Is(target error) bool {
	var t *FormError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new FormError.
func New(category ErrorCategory, code, message string) *FormError {
	return &FormError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new FormError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *FormError {
	return &FormError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *FormError) WithDetails(details map[string]interface{}) *FormError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a FormError.
func GetCategory(err error) ErrorCategory {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a FormError.
func GetCode(err error) string {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsSchemaError reports whether err aborts model construction.
func IsSchemaError(err error) bool {
	return GetCategory(err) == ErrCategorySchema
}

// IsValueError reports whether err failed a single value conversion.
func IsValueError(err error) bool {
	return GetCategory(err) == ErrCategoryValue
}

// IsResolutionError reports whether err is an unresolved element path.
func IsResolutionError(err error) bool {
	return GetCategory(err) == ErrCategoryResolution
}

// Only transient storage reads and writes are worth retrying.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeReadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeWriteFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewSchemaError(code, message string) *FormError {
	return New(ErrCategorySchema, code, message)
}

func NewValueError(code, message string) *FormError {
	return New(ErrCategoryValue, code, message)
}

func NewResolutionError(message string) *FormError {
	return New(ErrCategoryResolution, CodeUnresolvedElementPath, message)
}

func NewStorageError(code, message string, cause error) *FormError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *FormError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
