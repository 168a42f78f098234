package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStoreError(t *testing.T) {
	originalErr := errors.New("disk I/O error")
	err := &StoreError{Op: "get", Key: "session.token", Err: originalErr}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "store error") {
		t.Errorf("StoreError.Error() should contain 'store error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "session.token") {
		t.Errorf("StoreError.Error() should contain key, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("StoreError.Unwrap() should return original error")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("StoreError should match ErrStoreUnavailable")
	}
}

func TestErrorSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "asset too large", err: &AssetTooLargeError{Name: "a.mp4", Size: 2, Limit: 1}, target: ErrAssetTooLarge, want: true},
		{name: "submission", err: &SubmissionError{Reason: "rejected"}, target: ErrSubmissionFailed, want: true},
		{name: "network", err: &NetworkError{Op: "poll", Err: errBoom}, target: ErrNetwork, want: true},
		{name: "api 401", err: &APIError{StatusCode: 401}, target: ErrUnauthorized, want: true},
		{name: "api 403", err: &APIError{StatusCode: 403}, target: ErrUnauthorized, want: true},
		{name: "api 500", err: &APIError{StatusCode: 500}, target: ErrUnauthorized, want: false},
		{name: "login required", err: &LoginRequiredError{Action: ActionViewSaved}, target: ErrUnauthorized, want: true},
		{name: "network is not unauthorized", err: &NetworkError{Op: "poll", Err: errBoom}, target: ErrUnauthorized, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
			if tt.err.Error() == "" {
				t.Error("Error() returned empty string")
			}
		})
	}
}

func TestSubmissionError_Unwrap(t *testing.T) {
	inner := &NetworkError{Op: "create task", Err: errBoom}
	err := &SubmissionError{Reason: "could not reach the server", Err: inner}

	if !errors.Is(err, ErrNetwork) {
		t.Error("SubmissionError should unwrap to the network error")
	}
	if !strings.Contains(err.Error(), "could not reach the server") {
		t.Errorf("SubmissionError.Error() = %q, should contain reason", err.Error())
	}
}

func TestAPIError_Message(t *testing.T) {
	withMsg := &APIError{Op: "save", StatusCode: 409, Message: "conflict"}
	if !strings.Contains(withMsg.Error(), "conflict") {
		t.Errorf("APIError.Error() = %q, should contain message", withMsg.Error())
	}
	bare := &APIError{Op: "save", StatusCode: 502}
	if !strings.Contains(bare.Error(), "502") {
		t.Errorf("APIError.Error() = %q, should contain status", bare.Error())
	}
}
