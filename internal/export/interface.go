package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/signbridge/internal"
)

// Document is a titled list of translations to export
type Document struct {
	Title      string                      `json:"title" yaml:"title"`
	ExportedAt time.Time                   `json:"exported_at" yaml:"exported_at"`
	Items      []internal.SavedTranslation `json:"items" yaml:"items"`
}

// HistoryDocument builds a Document from recent history
func HistoryDocument(entries []internal.HistoryEntry) *Document {
	items := make([]internal.SavedTranslation, 0, len(entries))
	for _, e := range entries {
		items = append(items, internal.SavedFromHistory(e))
	}
	return &Document{Title: "Recent translations", ExportedAt: time.Now().UTC(), Items: items}
}

// SavedDocument builds a Document from saved translations
func SavedDocument(items []internal.SavedTranslation) *Document {
	return &Document{Title: "Saved translations", ExportedAt: time.Now().UTC(), Items: items}
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
