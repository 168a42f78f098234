package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const (
	// MaxAssetSize is the upload ceiling (100 MB, decimal) enforced before
	// any network call
	MaxAssetSize int64 = 100 * 1000 * 1000
	// DefaultPollInterval is how often a running task is polled
	DefaultPollInterval = 3 * time.Second
)

// ErrPollingStopped is returned by Wait when the polling scope ended before
// the task reached a terminal state
var ErrPollingStopped = errors.New("polling stopped before task finished")

// TaskStatus is the lifecycle state of a translation task
type TaskStatus string

const (
	TaskSubmitted  TaskStatus = "submitted"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transitions can occur
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// TaskResult is the payload of a completed task
type TaskResult struct {
	TranslatedText string `json:"translated_text" yaml:"translated_text"`
	SourceText     string `json:"source_text,omitempty" yaml:"source_text,omitempty"`
	AudioURL       string `json:"audio_url,omitempty" yaml:"audio_url,omitempty"`
}

// StatusReport is one poll response from the backend
type StatusReport struct {
	Status string      `json:"status"`
	Result *TaskResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// TranslationTask is a snapshot of one server-side translation job
type TranslationTask struct {
	ID          string
	Status      TaskStatus
	Result      *TaskResult
	Reason      string // failure reason for TaskFailed
	Err         error  // set when the failure was local (e.g. *NetworkError)
	Options     PipelineOptions
	AssetName   string
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// MediaAsset is a video to be translated
type MediaAsset interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// FileAsset is a MediaAsset read from disk
type FileAsset struct {
	path string
	size int64
}

// NewFileAsset stats path and returns an asset for it
func NewFileAsset(path string) (*FileAsset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("asset %s is a directory", path)
	}
	return &FileAsset{path: path, size: info.Size()}, nil
}

func (a *FileAsset) Name() string { return filepath.Base(a.path) }
func (a *FileAsset) Size() int64  { return a.size }

func (a *FileAsset) Open() (io.ReadCloser, error) {
	return os.Open(a.path)
}

// BytesAsset is an in-memory MediaAsset
type BytesAsset struct {
	Filename string
	Data     []byte
}

func (a *BytesAsset) Name() string { return a.Filename }
func (a *BytesAsset) Size() int64  { return int64(len(a.Data)) }

func (a *BytesAsset) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.Data)), nil
}

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// PipelineOptions are passed to the backend alongside the video
type PipelineOptions struct {
	SignLanguage   string `json:"sign_language" yaml:"sign_language"`
	TargetLanguage string `json:"target_language" yaml:"target_language"`
	Audio          bool   `json:"audio" yaml:"audio"`
}

// Validate checks the language codes
func (o PipelineOptions) Validate() error {
	if !languagePattern.MatchString(o.SignLanguage) {
		return fmt.Errorf("invalid sign language code %q", o.SignLanguage)
	}
	if !languagePattern.MatchString(o.TargetLanguage) {
		return fmt.Errorf("invalid target language code %q", o.TargetLanguage)
	}
	return nil
}

// TaskBackend is the remote side of the task lifecycle. Implementations must
// return promptly once ctx is cancelled.
type TaskBackend interface {
	CreateTask(ctx context.Context, asset MediaAsset, opts PipelineOptions) (string, error)
	GetTaskStatus(ctx context.Context, taskID string) (StatusReport, error)
	CancelTask(ctx context.Context, taskID string) error
}

// TaskListener receives every task state change
type TaskListener func(TranslationTask)

// CancelToken is owned by one polling loop. Once cancelled, no poll response
// may mutate the task.
type CancelToken struct {
	once sync.Once
	ch   chan struct{}
}

func newCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Cancel cancels the token; it reports whether this call did it
func (t *CancelToken) Cancel() bool {
	fired := false
	t.once.Do(func() {
		close(t.ch)
		fired = true
	})
	return fired
}

// Cancelled reports whether Cancel has been called
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Done is closed when the token is cancelled
func (t *CancelToken) Done() <-chan struct{} {
	return t.ch
}

type trackedTask struct {
	task       TranslationTask
	token      *CancelToken
	stop       context.CancelFunc
	loopDone   chan struct{}
	settled    chan struct{}
	settleOnce sync.Once
}

func (tt *trackedTask) settle() {
	tt.settleOnce.Do(func() { close(tt.settled) })
}

// EngineOption configures a TaskEngine
type EngineOption func(*TaskEngine)

// WithPollInterval overrides DefaultPollInterval
func WithPollInterval(d time.Duration) EngineOption {
	return func(e *TaskEngine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithClock overrides time.Now for task timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *TaskEngine) {
		e.now = now
	}
}

// TaskEngine submits media for translation and drives each task's polling
// loop until it reaches a terminal state.
type TaskEngine struct {
	backend  TaskBackend
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	tasks     map[string]*trackedTask
	closed    bool
	nextSubID int
	listeners map[int]TaskListener

	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// NewTaskEngine creates an engine polling backend
func NewTaskEngine(backend TaskBackend, opts ...EngineOption) *TaskEngine {
	e := &TaskEngine{
		backend:   backend,
		interval:  DefaultPollInterval,
		now:       time.Now,
		tasks:     make(map[string]*trackedTask),
		listeners: make(map[int]TaskListener),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers a listener for task state changes. Listeners run on
// the goroutine that made the change and must not call Cancel or Wait.
func (e *TaskEngine) Subscribe(fn TaskListener) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Submit validates and uploads asset, then starts polling the new task.
// ctx scopes the polling loop as well as the upload: cancelling it stops
// polling for this task.
func (e *TaskEngine) Submit(ctx context.Context, asset MediaAsset, opts PipelineOptions) (TranslationTask, error) {
	if size := asset.Size(); size > MaxAssetSize {
		return TranslationTask{}, &AssetTooLargeError{Name: asset.Name(), Size: size, Limit: MaxAssetSize}
	}
	if err := opts.Validate(); err != nil {
		return TranslationTask{}, err
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return TranslationTask{}, fmt.Errorf("task engine is closed")
	}

	LogDebug("Submitting %s (%d bytes)", asset.Name(), asset.Size())
	taskID, err := e.backend.CreateTask(ctx, asset, opts)
	if err != nil {
		return TranslationTask{}, &SubmissionError{Reason: submissionReason(err), Err: err}
	}
	if taskID == "" {
		return TranslationTask{}, &SubmissionError{Reason: "backend returned no task id"}
	}

	now := e.now()
	pollCtx, stop := context.WithCancel(ctx)
	tt := &trackedTask{
		task: TranslationTask{
			ID:          taskID,
			Status:      TaskSubmitted,
			Options:     opts,
			AssetName:   asset.Name(),
			SubmittedAt: now,
			UpdatedAt:   now,
		},
		token:    newCancelToken(),
		stop:     stop,
		loopDone: make(chan struct{}),
		settled:  make(chan struct{}),
	}

	e.mu.Lock()
	if _, exists := e.tasks[taskID]; exists || e.closed {
		e.mu.Unlock()
		stop()
		return TranslationTask{}, &SubmissionError{Reason: fmt.Sprintf("task %s cannot be tracked", taskID)}
	}
	e.tasks[taskID] = tt
	snapshot := tt.task
	e.wg.Add(1)
	e.mu.Unlock()

	LogInfo("Task %s submitted", taskID)
	e.notify(snapshot)

	go e.pollLoop(pollCtx, tt)
	return snapshot, nil
}

func submissionReason(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("server rejected the upload (status %d)", apiErr.StatusCode)
	case errors.Is(err, ErrNetwork):
		return "could not reach the server"
	default:
		return "upload failed"
	}
}

func (e *TaskEngine) pollLoop(ctx context.Context, tt *trackedTask) {
	defer e.wg.Done()
	defer close(tt.loopDone)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-tt.token.Done():
			return
		case <-ctx.Done():
			e.tearDown(tt)
			return
		case <-ticker.C:
		}

		if tt.token.Cancelled() {
			return
		}

		report, err := e.backend.GetTaskStatus(ctx, tt.task.ID)
		if ctx.Err() != nil {
			e.tearDown(tt)
			return
		}
		if e.applyReport(tt, report, err) {
			return
		}
	}
}

// tearDown handles the polling scope ending without an explicit cancel
func (e *TaskEngine) tearDown(tt *trackedTask) {
	e.mu.Lock()
	fired := tt.token.Cancel()
	e.mu.Unlock()
	if fired {
		LogDebug("Polling for task %s stopped", tt.task.ID)
		tt.settle()
	}
}

// applyReport applies one poll outcome and reports whether polling should stop
func (e *TaskEngine) applyReport(tt *trackedTask, report StatusReport, pollErr error) bool {
	e.mu.Lock()
	if tt.token.Cancelled() {
		e.mu.Unlock()
		LogDebug("Discarding stale status for task %s", tt.task.ID)
		return true
	}

	task := &tt.task
	changed := false
	if pollErr != nil {
		task.Status = TaskFailed
		task.Err = &NetworkError{Op: "poll", Err: pollErr}
		task.Reason = "network error"
		changed = true
	} else {
		switch report.Status {
		case string(TaskProcessing):
			if task.Status == TaskSubmitted {
				task.Status = TaskProcessing
				changed = true
			}
		case string(TaskCompleted):
			task.Status = TaskCompleted
			task.Result = report.Result
			if task.Result == nil {
				task.Result = &TaskResult{}
			}
			changed = true
		case string(TaskFailed):
			task.Status = TaskFailed
			task.Reason = report.Error
			if task.Reason == "" {
				task.Reason = "translation failed"
			}
			changed = true
		case string(TaskCancelled):
			task.Status = TaskCancelled
			changed = true
		default:
			LogDebug("Task %s: ignoring status %q", task.ID, report.Status)
		}
	}

	terminal := task.Status.IsTerminal()
	if changed {
		task.UpdatedAt = e.now()
	}
	if terminal {
		tt.token.Cancel()
	}
	snapshot := *task
	e.mu.Unlock()

	if changed {
		e.notify(snapshot)
	}
	if terminal {
		LogInfo("Task %s finished: %s", snapshot.ID, snapshot.Status)
		tt.settle()
	}
	return terminal
}

// Cancel stops local polling for taskID, then asks the backend to cancel.
// The task ends Cancelled even if the remote request fails; that error is
// returned for reporting only.
func (e *TaskEngine) Cancel(ctx context.Context, taskID string) (TranslationTask, error) {
	e.mu.Lock()
	tt, ok := e.tasks[taskID]
	if !ok {
		e.mu.Unlock()
		return TranslationTask{}, ErrTaskNotFound
	}
	if tt.task.Status.IsTerminal() {
		snapshot := tt.task
		e.mu.Unlock()
		return snapshot, nil
	}
	tt.token.Cancel()
	tt.stop()
	e.mu.Unlock()

	// The loop must be gone before the remote request goes out
	<-tt.loopDone

	var remoteErr error
	if err := e.backend.CancelTask(ctx, taskID); err != nil {
		LogWarn("Remote cancel for task %s failed: %v", taskID, err)
		remoteErr = fmt.Errorf("remote cancel failed: %w", err)
	}

	e.mu.Lock()
	changed := false
	if !tt.task.Status.IsTerminal() {
		tt.task.Status = TaskCancelled
		tt.task.UpdatedAt = e.now()
		changed = true
	}
	snapshot := tt.task
	e.mu.Unlock()

	if changed {
		e.notify(snapshot)
	}
	tt.settle()
	return snapshot, remoteErr
}

// Get returns the latest snapshot of a tracked task
func (e *TaskEngine) Get(taskID string) (TranslationTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tt, ok := e.tasks[taskID]
	if !ok {
		return TranslationTask{}, false
	}
	return tt.task, true
}

// Wait blocks until the task is terminal, its polling scope ends, or ctx is done
func (e *TaskEngine) Wait(ctx context.Context, taskID string) (TranslationTask, error) {
	e.mu.Lock()
	tt, ok := e.tasks[taskID]
	e.mu.Unlock()
	if !ok {
		return TranslationTask{}, ErrTaskNotFound
	}

	select {
	case <-tt.settled:
	case <-ctx.Done():
		snapshot, _ := e.Get(taskID)
		return snapshot, ctx.Err()
	}

	snapshot, _ := e.Get(taskID)
	if !snapshot.Status.IsTerminal() {
		return snapshot, ErrPollingStopped
	}
	return snapshot, nil
}

// Close stops every polling loop and waits for them to exit
func (e *TaskEngine) Close() {
	e.mu.Lock()
	e.closed = true
	for _, tt := range e.tasks {
		tt.stop()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *TaskEngine) notify(task TranslationTask) {
	e.mu.Lock()
	listeners := make([]TaskListener, 0, len(e.listeners))
	for id := 0; id < e.nextSubID; id++ {
		if fn, ok := e.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	e.mu.Unlock()

	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	for _, fn := range listeners {
		fn(task)
	}
}
