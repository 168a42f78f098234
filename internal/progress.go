package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// Spinner renders a one-line progress indicator whose message can change
// while it runs (e.g. "submitted" -> "processing")
type Spinner struct {
	w       io.Writer
	tty     bool
	mu      sync.Mutex
	message string
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner writing to stderr
func NewSpinner(message string) *Spinner {
	return newSpinner(os.Stderr, message)
}

func newSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		tty:     isTerminal(w),
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins rendering; on a non-TTY it only logs the initial message
func (s *Spinner) Start(ctx context.Context) {
	if !s.tty {
		LogInfo("%s", s.message)
		close(s.done)
		return
	}

	go func() {
		defer close(s.done)
		spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()
				char := spinnerChars[i%len(spinnerChars)]
				fmt.Fprintf(s.w, "\r\033[K%s %s", progressStyle.Render(char), msg)
				i++
			}
		}
	}()
}

// Update changes the message shown next to the spinner
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	changed := s.message != message
	s.message = message
	s.mu.Unlock()
	if changed && !s.tty {
		LogInfo("%s", message)
	}
}

// Stop ends rendering and clears the spinner line
func (s *Spinner) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	if s.tty {
		fmt.Fprint(s.w, "\r\033[K")
	}
}

// ShowProgress runs fn with a spinner next to message
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	s := NewSpinner(message)
	s.Start(ctx)
	err := fn()
	s.Stop()
	if err != nil {
		PrintError(message)
		return err
	}
	if s.tty {
		PrintSuccess(message)
	}
	return nil
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// IsInteractive reports whether stdin and stderr are both terminals
func IsInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stderr)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}
