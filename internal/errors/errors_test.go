package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormError_Error(t *testing.T) {
	err := New(ErrCategorySchema, CodeMissingElementKey, "elementKey is not defined")
	expected := "[SCHEMA:MISSING_ELEMENT_KEY] elementKey is not defined"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestFormError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryStorage, CodeReadFailed, "read failed", cause)
	expected := "[STORAGE:READ_FAILED] read failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestFormError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryStorage, CodeWriteFailed, "write", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestFormError_Is(t *testing.T) {
	err1 := NewValueError(CodeNonInteger, "first")
	err2 := NewValueError(CodeNonInteger, "second")
	err3 := NewValueError(CodeNotAList, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeReadFailed, true},
		{ErrCategoryStorage, CodeWriteFailed, true},
		{ErrCategoryStorage, CodeObjectNotFound, false},
		{ErrCategorySchema, CodeDuplicateElementKey, false},
		{ErrCategoryValue, CodeEmptyString, false},
		{ErrCategoryResolution, CodeUnresolvedElementPath, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := NewResolutionError("unrecognized elementPath")
	if GetCategory(err) != ErrCategoryResolution {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryResolution)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-FormError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewValueError(CodeBadDateTime, "bad"))
	if GetCode(err) != CodeBadDateTime {
		t.Errorf("got %q, want %q", GetCode(err), CodeBadDateTime)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-FormError should return empty code")
	}
}

func TestChannelPredicates(t *testing.T) {
	if !IsSchemaError(NewSchemaError(CodeElementKeyTooLong, "long")) {
		t.Error("expected schema error")
	}
	if !IsValueError(NewValueError(CodeEmptyString, "empty")) {
		t.Error("expected value error")
	}
	if !IsResolutionError(NewResolutionError("missing")) {
		t.Error("expected resolution error")
	}
	if IsSchemaError(NewValueError(CodeEmptyString, "empty")) {
		t.Error("value error must not be a schema error")
	}
}

func TestWithDetails(t *testing.T) {
	err := NewSchemaError(CodeDuplicateElementKey, "duplicate")
	detailed := err.WithDetails(map[string]interface{}{"elementKey": "k1"})

	if detailed.Details["elementKey"] != "k1" {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	s := NewStorageError(CodeReadFailed, "s3 down", cause)
	if s.Category != ErrCategoryStorage || !errors.Is(s, cause) {
		t.Error("NewStorageError mismatch")
	}

	r := NewResolutionError("no such path")
	if r.Category != ErrCategoryResolution || r.Code != CodeUnresolvedElementPath {
		t.Error("NewResolutionError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
