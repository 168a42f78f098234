package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/signbridge/internal"
	"github.com/iksnae/signbridge/testutil"
)

func newTestClient(t *testing.T) (*Client, *testutil.FakeBackend) {
	t.Helper()
	fake := testutil.NewFakeBackend(t)
	fake.AddUser("ada@example.com", "secret", "tok-ada", "Ada")
	return New(fake.URL()+"/", 5*time.Second), fake
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://example.com/api/", time.Second)
	if got := c.BaseURL(); got != "http://example.com/api" {
		t.Errorf("BaseURL() = %q, want %q", got, "http://example.com/api")
	}
}

func TestClient_Login(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "ada@example.com", password: "secret"},
		{name: "wrong password", email: "ada@example.com", password: "nope", wantErr: internal.ErrUnauthorized},
		{name: "unknown user", email: "bob@example.com", password: "secret", wantErr: internal.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := c.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if cred.Token != "tok-ada" {
				t.Errorf("Login() token = %q, want %q", cred.Token, "tok-ada")
			}
			if cred.Profile.DisplayName != "Ada" || cred.Profile.Email != "ada@example.com" {
				t.Errorf("Login() profile = %+v", cred.Profile)
			}
		})
	}
}

func TestClient_RequestHeaders(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if _, err := c.ListSaved(ctx, "tok-ada"); err != nil {
		t.Fatalf("ListSaved() error = %v", err)
	}
	if err := c.CancelTask(ctx, "missing"); err == nil {
		t.Fatal("CancelTask() expected error for unknown task")
	}

	reqs := fake.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Requests() = %d, want 2", len(reqs))
	}
	if reqs[0].Auth != "Bearer tok-ada" {
		t.Errorf("ListSaved Authorization = %q, want bearer token", reqs[0].Auth)
	}
	if reqs[1].Auth != "" {
		t.Errorf("CancelTask Authorization = %q, want none", reqs[1].Auth)
	}
	if reqs[0].RequestID == "" || reqs[0].RequestID == reqs[1].RequestID {
		t.Errorf("request ids = %q, %q, want distinct non-empty", reqs[0].RequestID, reqs[1].RequestID)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("non-2xx becomes APIError with server message", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.FailRoute(testutil.RouteCreateSaved, http.StatusInternalServerError)

		err := c.CreateSaved(ctx, "tok-ada", internal.CreateTestSaved("", "hi", "hello"))
		var apiErr *internal.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("CreateSaved() error = %v, want *APIError", err)
		}
		if apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
		}
		if apiErr.Message != "injected failure" {
			t.Errorf("Message = %q, want %q", apiErr.Message, "injected failure")
		}
	})

	t.Run("401 matches ErrUnauthorized", func(t *testing.T) {
		c, _ := newTestClient(t)
		_, err := c.ListSaved(ctx, "bogus")
		if !errors.Is(err, internal.ErrUnauthorized) {
			t.Errorf("ListSaved() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unreachable server becomes NetworkError", func(t *testing.T) {
		fake := testutil.NewFakeBackend(t)
		url := fake.URL()
		fake.Server.Close()

		c := New(url, time.Second)
		_, err := c.GetTaskStatus(ctx, "task-1")
		if !errors.Is(err, internal.ErrNetwork) {
			t.Errorf("GetTaskStatus() error = %v, want ErrNetwork", err)
		}
		if err := c.Ping(ctx); !errors.Is(err, internal.ErrNetwork) {
			t.Errorf("Ping() error = %v, want ErrNetwork", err)
		}
	})
}

func TestClient_TaskLifecycle(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	fake.ScriptTask("task-42",
		testutil.FakeStatus{Status: "processing"},
		testutil.FakeStatus{Status: "completed", TranslatedText: "bonjour"},
	)

	asset := &internal.BytesAsset{Filename: "clip.mp4", Data: []byte("not really a video")}
	opts := internal.PipelineOptions{SignLanguage: "ase", TargetLanguage: "fr"}

	id, err := c.CreateTask(ctx, asset, opts)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if id != "task-42" {
		t.Errorf("CreateTask() id = %q, want %q", id, "task-42")
	}
	if uploads := fake.Uploads(); len(uploads) != 1 || uploads[0] != "clip.mp4" {
		t.Errorf("Uploads() = %v, want [clip.mp4]", uploads)
	}

	report, err := c.GetTaskStatus(ctx, id)
	if err != nil {
		t.Fatalf("GetTaskStatus() error = %v", err)
	}
	if report.Status != "processing" {
		t.Errorf("first status = %q, want processing", report.Status)
	}

	report, err = c.GetTaskStatus(ctx, id)
	if err != nil {
		t.Fatalf("GetTaskStatus() error = %v", err)
	}
	if report.Status != "completed" || report.Result == nil || report.Result.TranslatedText != "bonjour" {
		t.Errorf("second status = %+v, want completed/bonjour", report)
	}

	if err := c.CancelTask(ctx, id); err != nil {
		t.Errorf("CancelTask() error = %v", err)
	}
	if n := fake.Count(testutil.RouteCancelTask); n != 1 {
		t.Errorf("cancel requests = %d, want 1", n)
	}
}

func TestClient_CreateTaskRejected(t *testing.T) {
	c, fake := newTestClient(t)
	fake.FailRoute(testutil.RouteCreateTask, http.StatusUnprocessableEntity)

	asset := &internal.BytesAsset{Filename: "clip.webm", Data: []byte("x")}
	_, err := c.CreateTask(context.Background(), asset, internal.PipelineOptions{SignLanguage: "ase", TargetLanguage: "en"})
	var apiErr *internal.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("CreateTask() error = %v, want 422 APIError", err)
	}
}

func TestClient_SavedRoundTrip(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	entry := internal.CreateTestSaved("", "HELLO", "hello")
	if err := c.CreateSaved(ctx, "tok-ada", entry); err != nil {
		t.Fatalf("CreateSaved() error = %v", err)
	}

	items, err := c.ListSaved(ctx, "tok-ada")
	if err != nil {
		t.Fatalf("ListSaved() error = %v", err)
	}
	if len(items) != 1 || items[0].Key() != entry.Key() {
		t.Errorf("ListSaved() = %+v, want the saved entry", items)
	}

	if err := c.ClearSaved(ctx, "tok-ada"); err != nil {
		t.Fatalf("ClearSaved() error = %v", err)
	}
	if got := fake.Saved(); len(got) != 0 {
		t.Errorf("Saved() after clear = %v, want empty", got)
	}
}

func TestClient_AccountEndpoints(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.SignOut(ctx, "tok-ada"); err != nil {
		t.Errorf("SignOut() error = %v", err)
	}
	if err := c.DeleteAccount(ctx, "tok-ada"); err != nil {
		t.Errorf("DeleteAccount() error = %v", err)
	}
	// The token no longer exists after deletion
	if err := c.SignOut(ctx, "tok-ada"); !errors.Is(err, internal.ErrUnauthorized) {
		t.Errorf("SignOut() after delete error = %v, want ErrUnauthorized", err)
	}
	if n := fake.Count(testutil.RouteDeleteAccount); n != 1 {
		t.Errorf("delete requests = %d, want 1", n)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error field", body: `{"error":"bad video"}`, want: "bad video"},
		{name: "message field", body: `{"message":"quota exceeded"}`, want: "quota exceeded"},
		{name: "plain text", body: "  gateway timeout\n", want: "gateway timeout"},
		{name: "empty", body: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage(strings.NewReader(tt.body)); got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoContentType(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":  "video/mp4",
		"CLIP.MOV":  "video/quicktime",
		"clip.webm": "video/webm",
		"clip.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := videoContentType(name); got != want {
			t.Errorf("videoContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestClient_TaskIDIsPathEscaped(t *testing.T) {
	var mu sync.Mutex
	var paths, queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.EscapedPath())
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"processing"}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	ctx := context.Background()
	ids := []string{"task-42", "a/cancel", "x?y#z"}
	for _, id := range ids {
		if _, err := client.GetTaskStatus(ctx, id); err != nil {
			t.Fatalf("GetTaskStatus(%q) error = %v", id, err)
		}
		if err := client.CancelTask(ctx, id); err != nil {
			t.Fatalf("CancelTask(%q) error = %v", id, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, id := range ids {
		escaped := "/tasks/" + url.PathEscape(id)
		if paths[2*i] != escaped {
			t.Errorf("status path for %q = %q, want %q", id, paths[2*i], escaped)
		}
		if paths[2*i+1] != escaped+"/cancel" {
			t.Errorf("cancel path for %q = %q, want %q", id, paths[2*i+1], escaped+"/cancel")
		}
		if queries[2*i] != "" || queries[2*i+1] != "" {
			t.Errorf("id %q leaked into the query: %q, %q", id, queries[2*i], queries[2*i+1])
		}
	}
}
