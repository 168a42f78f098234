// Package backend is the HTTP client for the sign-language translation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/signbridge/internal"
)

const (
	// RequestIDHeader correlates client requests with server logs
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 4 << 10
)

// Client talks to the translation backend over HTTP/JSON. It implements
// internal.TaskBackend, internal.SavedBackend and internal.AccountRemote.
type Client struct {
	baseURL string
	http    *http.Client
	// upload has no overall timeout; uploads are bounded by ctx
	upload  *http.Client
	timeout time.Duration
}

var (
	_ internal.TaskBackend   = (*Client)(nil)
	_ internal.SavedBackend  = (*Client)(nil)
	_ internal.AccountRemote = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.upload = hc
	}
}

// New creates a Client for baseURL with a per-request timeout
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		upload:  &http.Client{},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  internal.Profile `json:"user"`
}

// Login exchanges credentials for a session token and profile
func (c *Client) Login(ctx context.Context, email, password string) (internal.Credential, error) {
	var resp loginResponse
	err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return internal.Credential{}, err
	}
	if resp.Token == "" {
		return internal.Credential{}, fmt.Errorf("login response did not include a token")
	}
	return internal.Credential{Token: resp.Token, Profile: resp.User}, nil
}

// SignOut invalidates token on the server
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.doJSON(ctx, "sign out", http.MethodPost, "/auth/logout", token, nil, nil)
}

// DeleteAccount removes the account owning token
func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	return c.doJSON(ctx, "delete account", http.MethodDelete, "/auth/account", token, nil, nil)
}

type createTaskResponse struct {
	TaskID string `json:"task_id"`
}

// CreateTask uploads asset with opts and returns the backend task id
func (c *Client) CreateTask(ctx context.Context, asset internal.MediaAsset, opts internal.PipelineOptions) (string, error) {
	body, contentType, err := multipartUpload(asset, opts)
	if err != nil {
		return "", err
	}
	defer body.Close()

	req, err := c.newRequest(ctx, http.MethodPost, "/tasks", "", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	var resp createTaskResponse
	if err := c.do(c.upload, "create task", req, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// GetTaskStatus fetches the current status report for taskID
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (internal.StatusReport, error) {
	var report internal.StatusReport
	err := c.doJSON(ctx, "poll", http.MethodGet, "/tasks/"+url.PathEscape(taskID), "", nil, &report)
	return report, err
}

// CancelTask asks the backend to stop processing taskID
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	return c.doJSON(ctx, "cancel", http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/cancel", "", nil, nil)
}

type savedListResponse struct {
	Translations []internal.SavedTranslation `json:"translations"`
}

// ListSaved returns the account's saved translations in server order
func (c *Client) ListSaved(ctx context.Context, token string) ([]internal.SavedTranslation, error) {
	var resp savedListResponse
	if err := c.doJSON(ctx, "list saved", http.MethodGet, "/translations/saved", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Translations, nil
}

// CreateSaved stores entry for the account
func (c *Client) CreateSaved(ctx context.Context, token string, entry internal.SavedTranslation) error {
	return c.doJSON(ctx, "save", http.MethodPost, "/translations/saved", token, entry, nil)
}

// ClearSaved deletes every saved translation of the account
func (c *Client) ClearSaved(ctx context.Context, token string) error {
	return c.doJSON(ctx, "clear saved", http.MethodDelete, "/translations/saved", token, nil, nil)
}

// Ping checks the server answers at all; any HTTP response counts
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &internal.NetworkError{Op: "ping", Err: err}
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(c.http, op, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(hc *http.Client, op string, req *http.Request, out interface{}) error {
	internal.LogDebug("%s %s (%s)", req.Method, req.URL.Path, req.Header.Get(RequestIDHeader))

	resp, err := hc.Do(req)
	if err != nil {
		return &internal.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &internal.APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty response body", op)
		}
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or the raw text of an error body
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}
