package internal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// SavedTranslation is a translation the user explicitly kept. It is stored
// remotely and identified by its text/language tuple.
type SavedTranslation struct {
	ID             string    `json:"id,omitempty" yaml:"id,omitempty"`
	SourceLang     string    `json:"source_lang" yaml:"source_lang"`
	TargetLang     string    `json:"target_lang" yaml:"target_lang"`
	OriginalText   string    `json:"original_text" yaml:"original_text"`
	TranslatedText string    `json:"translated_text" yaml:"translated_text"`
	CreatedAt      time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Key hashes the identity tuple (originalText, translatedText, sourceLang, targetLang)
func (s SavedTranslation) Key() string {
	h := sha256.New()
	for _, part := range []string{s.OriginalText, s.TranslatedText, s.SourceLang, s.TargetLang} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SavedFromHistory converts a history entry into a saved translation
func SavedFromHistory(e HistoryEntry) SavedTranslation {
	return SavedTranslation{
		SourceLang:     e.SourceLang,
		TargetLang:     e.TargetLang,
		OriginalText:   e.OriginalText,
		TranslatedText: e.TranslatedText,
	}
}

// SaveOutcome is the non-error result of SavedCache.Save
type SaveOutcome int

const (
	SaveSaved SaveOutcome = iota
	SaveDuplicate
)

func (o SaveOutcome) String() string {
	if o == SaveDuplicate {
		return "duplicate"
	}
	return "saved"
}

// SavedBackend is the remote side of saved translations
type SavedBackend interface {
	ListSaved(ctx context.Context, token string) ([]SavedTranslation, error)
	CreateSaved(ctx context.Context, token string, entry SavedTranslation) error
	ClearSaved(ctx context.Context, token string) error
}

// SavedCache reads and writes the remote saved set. The remote list is
// fetched on every call since other devices may share the account.
type SavedCache struct {
	backend SavedBackend
	tokens  TokenSource
}

// NewSavedCache creates a SavedCache
func NewSavedCache(backend SavedBackend, tokens TokenSource) *SavedCache {
	return &SavedCache{backend: backend, tokens: tokens}
}

// List returns the remote saved set. With no session it returns an empty
// list without touching the network.
func (c *SavedCache) List(ctx context.Context) ([]SavedTranslation, error) {
	token, ok := c.tokens.Token()
	if !ok {
		return []SavedTranslation{}, nil
	}
	items, err := c.backend.ListSaved(ctx, token)
	if errors.Is(err, ErrUnauthorized) {
		LogWarn("Saved translations rejected the session token")
		return []SavedTranslation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list saved translations: %w", err)
	}
	if items == nil {
		items = []SavedTranslation{}
	}
	return items, nil
}

// Save stores entry remotely unless an identical tuple is already saved.
// Any failure is returned: a silently dropped save is data loss.
//
// The duplicate check is client-side and best-effort; a concurrent writer on
// another device can still race it.
func (c *SavedCache) Save(ctx context.Context, entry SavedTranslation) (SaveOutcome, error) {
	token, ok := c.tokens.Token()
	if !ok {
		return SaveSaved, ErrUnauthorized
	}

	existing, err := c.backend.ListSaved(ctx, token)
	if err != nil {
		return SaveSaved, fmt.Errorf("failed to fetch saved translations: %w", err)
	}
	key := entry.Key()
	for _, item := range existing {
		if item.Key() == key {
			LogDebug("Translation already saved, skipping create")
			return SaveDuplicate, nil
		}
	}

	if err := c.backend.CreateSaved(ctx, token, entry); err != nil {
		return SaveSaved, fmt.Errorf("failed to save translation: %w", err)
	}
	return SaveSaved, nil
}

// Clear removes every saved translation and reports whether it worked
func (c *SavedCache) Clear(ctx context.Context) bool {
	token, ok := c.tokens.Token()
	if !ok {
		return false
	}
	if err := c.backend.ClearSaved(ctx, token); err != nil {
		LogWarn("Failed to clear saved translations: %v", err)
		return false
	}
	return true
}

// Deduplicate drops repeated tuples, keeping first occurrences
func Deduplicate(items []SavedTranslation) []SavedTranslation {
	seen := make(map[string]bool)
	var unique []SavedTranslation
	for _, item := range items {
		key := item.Key()
		if !seen[key] {
			seen[key] = true
			unique = append(unique, item)
		}
	}
	return unique
}
