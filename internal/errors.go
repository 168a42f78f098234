package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetTooLarge is returned when a media asset exceeds MaxAssetSize.
	ErrAssetTooLarge = errors.New("asset too large")
	// ErrSubmissionFailed is returned when the backend rejects a new task.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrNetwork is returned for timeouts and connectivity failures.
	ErrNetwork = errors.New("network error")
	// ErrUnauthorized is returned when a session token is missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable is returned when durable storage cannot be read or written.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNoCredential is returned by SignIn when the login flow left no token behind.
	ErrNoCredential = errors.New("no credential in store")
	// ErrTaskNotFound is returned for task ids the engine does not track.
	ErrTaskNotFound = errors.New("task not found")
)

// StoreError represents errors accessing the durable key/value store
type StoreError struct {
	Op  string // "open", "get", "set", "delete"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// AssetTooLargeError reports a local size check failure
type AssetTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *AssetTooLargeError) Error() string {
	return fmt.Sprintf("asset %s is %d bytes, limit is %d bytes", e.Name, e.Size, e.Limit)
}

func (e *AssetTooLargeError) Is(target error) bool {
	return target == ErrAssetTooLarge
}

// SubmissionError represents a transport or server rejection of a new task
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("submission failed: %s", e.Reason)
	}
	return fmt.Sprintf("submission failed: %s: %v", e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// NetworkError represents a timeout or connectivity failure talking to the backend
type NetworkError struct {
	Op  string // "create task", "poll", "cancel", "list saved" ...
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIError represents a non-2xx response from the backend
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error [%s]: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("api error [%s]: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.StatusCode == 401 || e.StatusCode == 403)
}

// LoginRequiredError is returned when a gated action is denied
type LoginRequiredError struct {
	Action GatedAction
	Choice PromptChoice
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("login required to %s", e.Action)
}

func (e *LoginRequiredError) Is(target error) bool {
	return target == ErrUnauthorized
}
