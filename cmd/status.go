package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		state := a.session.State()
		row := func(label, value string) {
			fmt.Fprintln(out, labelStyle.Render(label)+valueStyle.Render(value))
		}

		row("Server", a.cfg.Server)
		row("Session", state.Phase.String())
		if state.Authenticated() {
			cred, err := a.creds.Load(ctx)
			if err != nil {
				internal.LogWarn("Failed to read cached profile: %v", err)
			} else if cred != nil {
				if cred.Profile.DisplayName != "" {
					row("Name", cred.Profile.DisplayName)
				}
				if cred.Profile.Email != "" {
					row("Email", cred.Profile.Email)
				}
			}
		}

		history := "on"
		enabled, err := a.prefs.HistoryEnabled(ctx)
		switch {
		case err != nil:
			internal.LogWarn("Failed to read history preference: %v", err)
			history = "unavailable"
		case !enabled:
			history = "off"
		}
		row("History", history)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
