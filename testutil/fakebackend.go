package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Route names recorded by FakeBackend
const (
	RouteLogin         = "login"
	RouteLogout        = "logout"
	RouteDeleteAccount = "delete-account"
	RouteCreateTask    = "create-task"
	RouteTaskStatus    = "task-status"
	RouteCancelTask    = "cancel-task"
	RouteListSaved     = "list-saved"
	RouteCreateSaved   = "create-saved"
	RouteClearSaved    = "clear-saved"
	RouteHealth        = "health"
)

// FakeStatus is one scripted poll response
type FakeStatus struct {
	Status         string
	TranslatedText string
	Error          string
}

// FakeSaved mirrors the saved translation wire format
type FakeSaved struct {
	ID             string `json:"id,omitempty"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
}

// RecordedRequest is one request seen by the fake
type RecordedRequest struct {
	Route     string
	Method    string
	Path      string
	Auth      string
	RequestID string
}

type fakeUser struct {
	password    string
	token       string
	displayName string
}

type fakeTask struct {
	script []FakeStatus
	polls  int
}

// FakeBackend is an httptest server implementing the translation API
type FakeBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	requests   []RecordedRequest
	users      map[string]fakeUser
	tokens     map[string]bool
	tasks      map[string]*fakeTask
	nextIDs    []string
	nextScript []FakeStatus
	saved      []FakeSaved
	failures   map[string]int
	uploads    []string
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		users:    make(map[string]fakeUser),
		tokens:   make(map[string]bool),
		tasks:    make(map[string]*fakeTask),
		failures: make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", f.handleHealth).Methods(http.MethodGet).Name(RouteHealth)
	r.HandleFunc("/auth/login", f.handleLogin).Methods(http.MethodPost).Name(RouteLogin)
	r.HandleFunc("/auth/logout", f.handleLogout).Methods(http.MethodPost).Name(RouteLogout)
	r.HandleFunc("/auth/account", f.handleDeleteAccount).Methods(http.MethodDelete).Name(RouteDeleteAccount)
	r.HandleFunc("/tasks", f.handleCreateTask).Methods(http.MethodPost).Name(RouteCreateTask)
	r.HandleFunc("/tasks/{id}", f.handleTaskStatus).Methods(http.MethodGet).Name(RouteTaskStatus)
	r.HandleFunc("/tasks/{id}/cancel", f.handleCancelTask).Methods(http.MethodPost).Name(RouteCancelTask)
	r.HandleFunc("/translations/saved", f.handleListSaved).Methods(http.MethodGet).Name(RouteListSaved)
	r.HandleFunc("/translations/saved", f.handleCreateSaved).Methods(http.MethodPost).Name(RouteCreateSaved)
	r.HandleFunc("/translations/saved", f.handleClearSaved).Methods(http.MethodDelete).Name(RouteClearSaved)
	r.Use(f.record)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// AddUser registers a user that can log in and is authorized with token
func (f *FakeBackend) AddUser(email, password, token, displayName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = fakeUser{password: password, token: token, displayName: displayName}
	f.tokens[token] = true
}

// ScriptTask makes the next created task use id and answer polls with
// script, repeating the last status once exhausted
func (f *FakeBackend) ScriptTask(id string, script ...FakeStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIDs = append(f.nextIDs, id)
	f.nextScript = script
}

// FailRoute makes every request to route answer with status
func (f *FakeBackend) FailRoute(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = status
}

// AddSaved seeds the saved set
func (f *FakeBackend) AddSaved(items ...FakeSaved) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, items...)
}

// Saved returns the current saved set
func (f *FakeBackend) Saved() []FakeSaved {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeSaved, len(f.saved))
	copy(out, f.saved)
	return out
}

// Uploads returns the filenames of every uploaded video
func (f *FakeBackend) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.uploads))
	copy(out, f.uploads)
	return out
}

// Requests returns every recorded request
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Count returns how many requests hit route
func (f *FakeBackend) Count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Route:     route,
			Method:    r.Method,
			Path:      r.URL.Path,
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		status, failing := f.failures[route]
		f.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	return token != "" && f.tokens[token]
}

func (f *FakeBackend) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (f *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	f.mu.Lock()
	user, ok := f.users[req.Email]
	f.mu.Unlock()
	if !ok || user.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": user.token,
		"user": map[string]string{
			"display_name": user.displayName,
			"email":        req.Email,
		},
	})
}

func (f *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeBackend) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	delete(f.tokens, token)
	for email, u := range f.users {
		if u.token == token {
			delete(f.users, email)
		}
	}
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeBackend) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid upload"})
		return
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing video"})
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()
	if r.FormValue("options") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing options"})
		return
	}

	f.mu.Lock()
	id := "task-auto"
	if len(f.nextIDs) > 0 {
		id = f.nextIDs[0]
		f.nextIDs = f.nextIDs[1:]
	}
	script := f.nextScript
	if len(script) == 0 {
		script = []FakeStatus{{Status: "completed", TranslatedText: "hello"}}
	}
	f.tasks[id] = &fakeTask{script: script}
	f.uploads = append(f.uploads, header.Filename)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"task_id": id})
}

func (f *FakeBackend) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	task, ok := f.tasks[id]
	var status FakeStatus
	if ok {
		i := task.polls
		if i >= len(task.script) {
			i = len(task.script) - 1
		}
		status = task.script[i]
		task.polls++
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	resp := map[string]interface{}{"status": status.Status}
	if status.TranslatedText != "" {
		resp["result"] = map[string]string{"translated_text": status.TranslatedText}
	}
	if status.Error != "" {
		resp["error"] = status.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeBackend) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	task, ok := f.tasks[id]
	if ok {
		task.script = []FakeStatus{{Status: "cancelled"}}
		task.polls = 0
	}
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (f *FakeBackend) handleListSaved(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"translations": f.Saved()})
}

func (f *FakeBackend) handleCreateSaved(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	var item FakeSaved
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	f.mu.Lock()
	f.saved = append(f.saved, item)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, item)
}

func (f *FakeBackend) handleClearSaved(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	f.mu.Lock()
	f.saved = nil
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
