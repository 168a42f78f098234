package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/iksnae/signbridge/testutil"
)

func newTestKV(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(testutil.CreateInMemoryDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	return store
}

// sizedAsset reports an arbitrary size without holding the bytes
type sizedAsset struct {
	name string
	size int64
}

func (a sizedAsset) Name() string { return a.name }
func (a sizedAsset) Size() int64  { return a.size }

func (a sizedAsset) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

const mb = 1000 * 1000

// fakeTaskBackend serves scripted status reports. After the script is
// exhausted the last report repeats.
type fakeTaskBackend struct {
	mu         sync.Mutex
	taskID     string
	createErr  error
	script     []StatusReport
	pollErr    error
	cancelErr  error
	creates    int
	polls      int
	cancels    int
	events     []string
	pollHook   func(ctx context.Context) // runs before a poll returns
	cancelHook func()
}

func (b *fakeTaskBackend) CreateTask(ctx context.Context, asset MediaAsset, opts PipelineOptions) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	if b.createErr != nil {
		return "", b.createErr
	}
	if b.taskID == "" {
		return "task-1", nil
	}
	return b.taskID, nil
}

func (b *fakeTaskBackend) GetTaskStatus(ctx context.Context, taskID string) (StatusReport, error) {
	b.mu.Lock()
	hook := b.pollHook
	b.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	b.events = append(b.events, "poll")
	if b.pollErr != nil {
		return StatusReport{}, b.pollErr
	}
	if len(b.script) == 0 {
		return StatusReport{Status: "processing"}, nil
	}
	i := b.polls - 1
	if i >= len(b.script) {
		i = len(b.script) - 1
	}
	return b.script[i], nil
}

func (b *fakeTaskBackend) CancelTask(ctx context.Context, taskID string) error {
	b.mu.Lock()
	hook := b.cancelHook
	b.cancels++
	b.events = append(b.events, "cancel")
	err := b.cancelErr
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (b *fakeTaskBackend) counts() (creates, polls, cancels int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creates, b.polls, b.cancels
}

func (b *fakeTaskBackend) eventLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

// fakeRemote records account calls
type fakeRemote struct {
	mu         sync.Mutex
	signOutErr error
	deleteErr  error
	signOuts   []string
	deletes    []string
}

func (r *fakeRemote) SignOut(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signOuts = append(r.signOuts, token)
	return r.signOutErr
}

func (r *fakeRemote) DeleteAccount(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, token)
	return r.deleteErr
}

// fakeSavedBackend is an in-memory saved set with call counters
type fakeSavedBackend struct {
	mu        sync.Mutex
	items     []SavedTranslation
	listErr   error
	createErr error
	clearErr  error
	lists     int
	creates   int
	clears    int
	tokens    []string
}

func (b *fakeSavedBackend) ListSaved(ctx context.Context, token string) ([]SavedTranslation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	b.tokens = append(b.tokens, token)
	if b.listErr != nil {
		return nil, b.listErr
	}
	out := make([]SavedTranslation, len(b.items))
	copy(out, b.items)
	return out, nil
}

func (b *fakeSavedBackend) CreateSaved(ctx context.Context, token string, entry SavedTranslation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	if b.createErr != nil {
		return b.createErr
	}
	b.items = append(b.items, entry)
	return nil
}

func (b *fakeSavedBackend) ClearSaved(ctx context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears++
	if b.clearErr != nil {
		return b.clearErr
	}
	b.items = nil
	return nil
}

func (b *fakeSavedBackend) calls() (lists, creates, clears int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists, b.creates, b.clears
}

// staticTokens is a fixed TokenSource
type staticTokens string

func (s staticTokens) Token() (string, bool) {
	return string(s), s != ""
}

// staticState is a fixed StateSource
type staticState SessionState

func (s staticState) State() SessionState {
	return SessionState(s)
}

// recordingPrompter answers every prompt with choice
type recordingPrompter struct {
	choice  PromptChoice
	prompts []LoginPrompt
}

func (p *recordingPrompter) PromptLogin(prompt LoginPrompt) PromptChoice {
	p.prompts = append(p.prompts, prompt)
	return p.choice
}

var errBoom = errors.New("boom")
