package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryLimit is the size of the recent-history ring buffer
const HistoryLimit = 5

const historyFileVersion = "1"

// HistoryEntry is one recent translation, kept on this device only
type HistoryEntry struct {
	SourceLang     string `json:"source_lang" yaml:"source_lang"`
	TargetLang     string `json:"target_lang" yaml:"target_lang"`
	OriginalText   string `json:"original_text" yaml:"original_text"`
	TranslatedText string `json:"translated_text" yaml:"translated_text"`
}

// historyFile is the on-disk YAML layout
type historyFile struct {
	Version   string         `yaml:"version"`
	UpdatedAt time.Time      `yaml:"updated_at"`
	Entries   []HistoryEntry `yaml:"entries"`
}

// History is a most-recent-first ring buffer of HistoryLimit entries
// persisted to a YAML file
type History struct {
	path  string
	prefs *Preferences

	mu      sync.Mutex
	entries []HistoryEntry
	loaded  bool
}

// NewHistory creates a History stored in dataDir
func NewHistory(dataDir string, prefs *Preferences) *History {
	return &History{
		path:  filepath.Join(dataDir, "history.yaml"),
		prefs: prefs,
	}
}

// Path returns the backing file path
func (h *History) Path() string {
	return h.path
}

// Record prepends entry unless recording is disabled by preference. It
// reports whether the entry was recorded.
func (h *History) Record(ctx context.Context, entry HistoryEntry) (bool, error) {
	if h.prefs != nil {
		enabled, err := h.prefs.HistoryEnabled(ctx)
		if err != nil {
			return false, err
		}
		if !enabled {
			LogDebug("History recording disabled, skipping entry")
			return false, nil
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.loadLocked(); err != nil {
		return false, err
	}

	next := make([]HistoryEntry, 0, HistoryLimit)
	next = append(next, entry)
	next = append(next, h.entries...)
	if len(next) > HistoryLimit {
		next = next[:HistoryLimit]
	}

	if err := h.saveLocked(next); err != nil {
		return false, err
	}
	h.entries = next
	return true, nil
}

// Entries returns the buffer, most recent first
func (h *History) Entries() ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out, nil
}

// Clear empties the buffer and removes the file
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return &StoreError{Op: "delete", Key: h.path, Err: err}
	}
	h.entries = nil
	h.loaded = true
	return nil
}

func (h *History) loadLocked() error {
	if h.loaded {
		return nil
	}
	data, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		h.loaded = true
		return nil
	}
	if err != nil {
		return &StoreError{Op: "get", Key: h.path, Err: err}
	}

	var file historyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		// Recent history is disposable; start over rather than fail the caller
		LogWarn("Discarding unreadable history file %s: %v", h.path, err)
		h.loaded = true
		return nil
	}
	if len(file.Entries) > HistoryLimit {
		file.Entries = file.Entries[:HistoryLimit]
	}
	h.entries = file.Entries
	h.loaded = true
	return nil
}

func (h *History) saveLocked(entries []HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0700); err != nil {
		return &StoreError{Op: "set", Key: h.path, Err: err}
	}
	data, err := yaml.Marshal(historyFile{
		Version:   historyFileVersion,
		UpdatedAt: time.Now().UTC(),
		Entries:   entries,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0600); err != nil {
		return &StoreError{Op: "set", Key: h.path, Err: err}
	}
	return nil
}
