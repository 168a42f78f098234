package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

// isInteractive reports whether the user can answer a prompt
var isInteractive = internal.IsInteractive

// cliPrompter asks on the terminal and cancels when nobody can answer
type cliPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPrompter(cmd *cobra.Command) *cliPrompter {
	return &cliPrompter{
		in:          bufio.NewReader(cmd.InOrStdin()),
		out:         cmd.ErrOrStderr(),
		interactive: isInteractive(),
	}
}

// PromptLogin implements internal.Prompter
func (p *cliPrompter) PromptLogin(prompt internal.LoginPrompt) internal.PromptChoice {
	internal.PrintWarning(prompt.Message)
	if !p.interactive {
		fmt.Fprintln(p.out, "Run 'signbridge login' to sign in.")
		return internal.PromptCancel
	}

	fmt.Fprint(p.out, "[l]ogin / [c]ancel: ")
	switch strings.ToLower(readLine(p.in)) {
	case "l", "login":
		return internal.PromptNavigateLogin
	default:
		return internal.PromptCancel
	}
}

func readLine(r *bufio.Reader) string {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// runGated runs fn behind the login guard. Choosing login at the prompt runs
// the login flow and then retries fn once.
func runGated(cmd *cobra.Command, action internal.GatedAction, fn func(ctx context.Context) error) error {
	a := current
	err := a.gate.Run(cmd.Context(), action, fn)

	var loginErr *internal.LoginRequiredError
	if !errors.As(err, &loginErr) {
		return err
	}
	if loginErr.Choice != internal.PromptNavigateLogin {
		return fmt.Errorf("%w: %v", errReported, err)
	}

	prompter := a.prompt
	fmt.Fprint(prompter.out, "Email: ")
	email := readLine(prompter.in)
	fmt.Fprint(prompter.out, "Password: ")
	password := readLine(prompter.in)
	if err := performLogin(cmd, email, password); err != nil {
		return err
	}
	return a.gate.Run(cmd.Context(), action, fn)
}
