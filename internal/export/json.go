package export

import (
	"encoding/json"
	"io"
)

// JSONExporter exports documents in JSON format (pretty-printed)
type JSONExporter struct{}

// Export writes the whole document as one JSON object
func (e *JSONExporter) Export(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
