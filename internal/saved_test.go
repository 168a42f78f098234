package internal

import (
	"context"
	"errors"
	"testing"
)

func TestSavedTranslation_Key(t *testing.T) {
	base := CreateTestSaved("1", "HELLO", "hello")

	tests := []struct {
		name  string
		other SavedTranslation
		same  bool
	}{
		{name: "identical tuple different id", other: CreateTestSaved("2", "HELLO", "hello"), same: true},
		{name: "different translation", other: CreateTestSaved("1", "HELLO", "hi"), same: false},
		{
			name:  "different target language",
			other: SavedTranslation{SourceLang: "ase", TargetLang: "fr", OriginalText: "HELLO", TranslatedText: "hello"},
			same:  false,
		},
		{
			name:  "boundaries are not ambiguous",
			other: SavedTranslation{SourceLang: "ase", TargetLang: "en", OriginalText: "HELLOh", TranslatedText: "ello"},
			same:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Key() == tt.other.Key(); got != tt.same {
				t.Errorf("Key() equal = %v, want %v", got, tt.same)
			}
		})
	}
}

func TestSavedCache_ListWithoutSession(t *testing.T) {
	backend := &fakeSavedBackend{items: []SavedTranslation{CreateTestSaved("1", "A", "a")}}
	cache := NewSavedCache(backend, staticTokens(""))

	items, err := cache.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("List() = %v, want empty non-nil", items)
	}
	if lists, _, _ := backend.calls(); lists != 0 {
		t.Errorf("ListSaved calls = %d, want 0", lists)
	}
}

func TestSavedCache_List(t *testing.T) {
	tests := []struct {
		name    string
		items   []SavedTranslation
		listErr error
		want    int
		wantErr bool
	}{
		{name: "server order", items: []SavedTranslation{CreateTestSaved("1", "A", "a"), CreateTestSaved("2", "B", "b")}, want: 2},
		{name: "nothing saved", want: 0},
		{name: "rejected token", listErr: &APIError{StatusCode: 401}, want: 0},
		{name: "server error", listErr: &APIError{StatusCode: 500}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeSavedBackend{items: tt.items, listErr: tt.listErr}
			cache := NewSavedCache(backend, staticTokens("tok"))

			items, err := cache.List(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("List() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if items == nil || len(items) != tt.want {
				t.Errorf("List() = %v, want %d items", items, tt.want)
			}
			if len(tt.items) > 1 && items[0].ID != "1" {
				t.Errorf("List() reordered items: %v", items)
			}
			if backend.tokens[0] != "tok" {
				t.Errorf("token = %q, want tok", backend.tokens[0])
			}
		})
	}
}

func TestSavedCache_SaveDeduplicates(t *testing.T) {
	backend := &fakeSavedBackend{}
	cache := NewSavedCache(backend, staticTokens("tok"))
	ctx := context.Background()
	entry := CreateTestSaved("", "HELLO", "hello")

	outcome, err := cache.Save(ctx, entry)
	if err != nil || outcome != SaveSaved {
		t.Fatalf("first Save() = %s, %v, want saved", outcome, err)
	}
	outcome, err = cache.Save(ctx, entry)
	if err != nil || outcome != SaveDuplicate {
		t.Fatalf("second Save() = %s, %v, want duplicate", outcome, err)
	}

	if _, creates, _ := backend.calls(); creates != 1 {
		t.Errorf("CreateSaved calls = %d, want 1", creates)
	}
}

func TestSavedCache_SaveErrors(t *testing.T) {
	entry := CreateTestSaved("", "HELLO", "hello")

	t.Run("no session", func(t *testing.T) {
		backend := &fakeSavedBackend{}
		_, err := NewSavedCache(backend, staticTokens("")).Save(context.Background(), entry)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Save() error = %v, want ErrUnauthorized", err)
		}
		if lists, creates, _ := backend.calls(); lists != 0 || creates != 0 {
			t.Errorf("backend calls = %d lists, %d creates, want none", lists, creates)
		}
	})

	t.Run("create rejected", func(t *testing.T) {
		backend := &fakeSavedBackend{createErr: &APIError{Op: "save", StatusCode: 500}}
		_, err := NewSavedCache(backend, staticTokens("tok")).Save(context.Background(), entry)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
			t.Errorf("Save() error = %v, want 500 APIError", err)
		}
	})

	t.Run("list failure blocks create", func(t *testing.T) {
		backend := &fakeSavedBackend{listErr: &NetworkError{Op: "list saved", Err: errBoom}}
		_, err := NewSavedCache(backend, staticTokens("tok")).Save(context.Background(), entry)
		if !errors.Is(err, ErrNetwork) {
			t.Errorf("Save() error = %v, want ErrNetwork", err)
		}
		if _, creates, _ := backend.calls(); creates != 0 {
			t.Errorf("CreateSaved calls = %d, want 0", creates)
		}
	})
}

func TestSavedCache_Clear(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		clearErr error
		want     bool
	}{
		{name: "success", token: "tok", want: true},
		{name: "server error", token: "tok", clearErr: &APIError{StatusCode: 500}, want: false},
		{name: "no session", token: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeSavedBackend{items: []SavedTranslation{CreateTestSaved("1", "A", "a")}, clearErr: tt.clearErr}
			if got := NewSavedCache(backend, staticTokens(tt.token)).Clear(context.Background()); got != tt.want {
				t.Errorf("Clear() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeduplicate(t *testing.T) {
	items := []SavedTranslation{
		CreateTestSaved("1", "A", "a"),
		CreateTestSaved("2", "B", "b"),
		CreateTestSaved("3", "A", "a"),
	}
	got := Deduplicate(items)
	if len(got) != 2 {
		t.Fatalf("Deduplicate() returned %d items, want 2", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("Deduplicate() kept %s, %s, want first occurrences", got[0].ID, got[1].ID)
	}
}

func TestSavedFromHistory(t *testing.T) {
	h := CreateTestHistoryEntry("HELLO", "hello")
	s := SavedFromHistory(h)
	if s.OriginalText != h.OriginalText || s.TranslatedText != h.TranslatedText ||
		s.SourceLang != h.SourceLang || s.TargetLang != h.TargetLang {
		t.Errorf("SavedFromHistory() = %+v", s)
	}
}
