// Package errors tests for error code definitions and error handling.
package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "error without underlying error",
			appError: New(ErrStorage, "disk unavailable"),
			want:     "[STORAGE_ERROR] disk unavailable",
		},
		{
			name:     "error with underlying error",
			appError: Wrap(ErrRemote, "request failed", errors.New("connection refused")),
			want:     "[REMOTE_ERROR] request failed: connection refused",
		},
		{
			name:     "not found error",
			appError: New(ErrNotFound, "record not found"),
			want:     "[NOT_FOUND] record not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appError.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying error")
	wrapped := Wrap(ErrStorage, "save failed", cause)
	if wrapped.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}

	plain := New(ErrInternal, "failed")
	if plain.Unwrap() != nil {
		t.Error("Expected nil cause for New()")
	}
}

func TestIsUnwrapsChain(t *testing.T) {
	cause := New(ErrUnauthenticated, "session expired")
	wrapped := Wrap(ErrRemote, "write rejected", cause)
	outer := fmt.Errorf("sync: %w", wrapped)

	if !Is(outer, ErrRemote) {
		t.Error("Expected ErrRemote in chain")
	}
	if !Is(outer, ErrUnauthenticated) {
		t.Error("Expected ErrUnauthenticated in chain")
	}
	if Is(outer, ErrValidation) {
		t.Error("Did not expect ErrValidation in chain")
	}
	if Is(nil, ErrRemote) {
		t.Error("nil carries no code")
	}
	if Is(errors.New("standard error"), ErrInternal) {
		t.Error("standard errors carry no code")
	}
}

func TestStdlibErrorsAsWorks(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Wrap(ErrValidation, "bad input", nil))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("Expected errors.As to find the AppError")
	}
	if appErr.Code != ErrValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []ErrorCode{
		ErrInternal, ErrInvalid, ErrNotFound, ErrValidation,
		ErrStorage, ErrMigration,
		ErrRemote, ErrUnauthenticated, ErrRemoteRejected,
		ErrSyncFailed, ErrSyncOffline,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if code == "" {
			t.Error("ErrorCode should not be empty")
		}
		if seen[code] {
			t.Errorf("ErrorCode %q is duplicated", code)
		}
		seen[code] = true
	}
}
