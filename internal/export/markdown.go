package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports documents as a Markdown list
type MarkdownExporter struct{}

// Export writes a heading followed by one section per translation
func (e *MarkdownExporter) Export(doc *Document, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", doc.Title)
	_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", doc.ExportedAt.Format("2006-01-02 15:04 MST"))
	_, _ = fmt.Fprintf(w, "**Translations:** %d\n\n", len(doc.Items))

	for i, item := range doc.Items {
		_, _ = fmt.Fprintf(w, "---\n\n")
		_, _ = fmt.Fprintf(w, "## %d. %s → %s\n\n", i+1, item.SourceLang, item.TargetLang)
		if item.OriginalText != "" {
			_, _ = fmt.Fprintf(w, "**Original:** %s\n\n", escapeMarkdown(item.OriginalText))
		}
		_, _ = fmt.Fprintf(w, "**Translation:** %s\n\n", escapeMarkdown(item.TranslatedText))
	}

	return nil
}

// escapeMarkdown escapes emphasis markers and flattens newlines
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	return strings.ReplaceAll(text, "\n", "  \n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
