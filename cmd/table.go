package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/signbridge/internal"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	langStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

const maxCellWidth = 40

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxCellWidth {
		return s[:maxCellWidth-3] + "..."
	}
	return s
}

// relativeDate formats t the way list output shows dates
func relativeDate(t time.Time) string {
	if t.IsZero() {
		return dateStyle.Render("—")
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return dateStyle.Render(t.Local().Format("Today 15:04"))
	case diff < 7*24*time.Hour:
		return dateStyle.Render(t.Local().Format("Mon 15:04"))
	case diff < 365*24*time.Hour:
		return dateStyle.Render(t.Local().Format("Jan 02 15:04"))
	default:
		return dateStyle.Render(t.Local().Format("2006-01-02"))
	}
}

// printTranslations renders a numbered table of translations
func printTranslations(out io.Writer, title string, items []internal.SavedTranslation, withDates bool) {
	if len(items) == 0 {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("No %s", strings.ToLower(title))))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(items))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	cols := []string{"#", "Languages", "Original", "Translation"}
	if withDates {
		cols = append(cols, "Saved")
	}
	for i, c := range cols {
		cols[i] = titleStyle.Render(c)
	}
	_, _ = fmt.Fprintln(w, strings.Join(cols, "\t")+"\t")

	for i, item := range items {
		row := []string{
			fmt.Sprintf("%d", i+1),
			langStyle.Render(item.SourceLang + " → " + item.TargetLang),
			truncate(item.OriginalText),
			truncate(item.TranslatedText),
		}
		if withDates {
			row = append(row, relativeDate(item.CreatedAt))
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	_ = w.Flush()
}
