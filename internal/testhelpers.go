package internal

import "time"

// CreateTestHistoryEntry creates a history entry with sample text
func CreateTestHistoryEntry(original, translated string) HistoryEntry {
	return HistoryEntry{
		SourceLang:     "ase",
		TargetLang:     "en",
		OriginalText:   original,
		TranslatedText: translated,
	}
}

// CreateTestSaved creates a saved translation with sample data
func CreateTestSaved(id, original, translated string) SavedTranslation {
	return SavedTranslation{
		ID:             id,
		SourceLang:     "ase",
		TargetLang:     "en",
		OriginalText:   original,
		TranslatedText: translated,
		CreatedAt:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}
