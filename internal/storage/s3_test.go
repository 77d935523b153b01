package storage

import (
	"context"
	"errors"
	"testing"
)

func TestRetryWithBackoff_StopsOnPermanentErrors(t *testing.T) {
	s := &S3Storage{maxRetries: 3}

	for _, permanent := range []error{ErrObjectNotFound, ErrPreconditionFailed} {
		calls := 0
		err := s.retryWithBackoff(context.Background(), func() error {
			calls++
			return permanent
		})
		if !errors.Is(err, permanent) {
			t.Errorf("expected %v, got %v", permanent, err)
		}
		if calls != 1 {
			t.Errorf("%v: expected 1 call, got %d", permanent, calls)
		}
	}
}

func TestRetryWithBackoff_RetriesTransientErrors(t *testing.T) {
	s := &S3Storage{maxRetries: 1}
	transient := errors.New("connection reset")

	calls := 0
	err := s.retryWithBackoff(context.Background(), func() error {
		calls++
		if calls == 1 {
			return transient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_CanceledContext(t *testing.T) {
	s := &S3Storage{maxRetries: 3}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.retryWithBackoff(ctx, func() error {
		t.Fatal("operation should not run after cancel")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsS3PreconditionFailed(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("api error PreconditionFailed: At least one of the pre-conditions you specified did not hold"), true},
		{errors.New("StatusCode: 412"), true},
		{errors.New("StatusCode: 500"), false},
	}
	for _, tt := range tests {
		if got := isS3PreconditionFailed(tt.err); got != tt.want {
			t.Errorf("isS3PreconditionFailed(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
