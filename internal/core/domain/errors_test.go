package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrQueryRequired", ErrQueryRequired, "query is required"},
		{"ErrQueryTooLong", ErrQueryTooLong, "query must be 200 characters or less"},
		{"ErrNotConnected", ErrNotConnected, "service not connected"},
		{"ErrRefreshFailed", ErrRefreshFailed, "token refresh failed"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrQueryRequired,
		ErrQueryTooLong,
		ErrUnknownService,
		ErrInvalidDate,
		ErrInvalidFileType,
		ErrNotConnected,
		ErrNoRefreshToken,
		ErrRefreshFailed,
		ErrProviderNotConfigured,
		ErrInvalidState,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrServiceUnavailable,
	}

	for i, a := range allErrors {
		for j, b := range allErrors {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors %v and %v should be distinct", a, b)
			}
		}
	}
}

func TestErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("refresh gmail: %w", ErrRefreshFailed)
	if !errors.Is(wrapped, ErrRefreshFailed) {
		t.Error("expected wrapped error to match ErrRefreshFailed")
	}
}
