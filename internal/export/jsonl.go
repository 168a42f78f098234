package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports one translation per line
type JSONLExporter struct{}

// Export writes each item as a single JSON line
func (e *JSONLExporter) Export(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, item := range doc.Items {
		obj := map[string]interface{}{
			"source_lang":     item.SourceLang,
			"target_lang":     item.TargetLang,
			"original_text":   item.OriginalText,
			"translated_text": item.TranslatedText,
		}
		if !item.CreatedAt.IsZero() {
			obj["created_at"] = item.CreatedAt
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode translation: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
