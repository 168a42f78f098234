package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/signbridge/internal"
	"github.com/iksnae/signbridge/internal/backend"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local storage and server reachability",
	Long: `Check the health of signbridge by verifying:
  • Configuration loads and is valid
  • The local session store opens and answers
  • The translation server is reachable
  • Whether a session is stored

This command is useful for debugging connection problems.`,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()
		failed := false

		fmt.Fprintln(out, sectionStyle.Render("🔍 signbridge Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Configuration invalid:"), err)
			return fmt.Errorf("%w: configuration invalid", errReported)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Server: %s\n", cfg.Server)
			fmt.Fprintf(out, "   Data dir: %s\n", cfg.DataDir)
			fmt.Fprintf(out, "   Poll interval: %s\n", cfg.PollInterval)
		}
		fmt.Fprintln(out)

		// Step 2: Session store
		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening session store..."))
		var phase internal.Phase = internal.PhaseAnonymous
		store, err := internal.OpenStore(cfg.DatabasePath())
		if err != nil {
			failed = true
			fmt.Fprintln(out, errorStyle.Render("❌ Session store unavailable:"), err)
		} else {
			defer store.Close()
			if err := store.Ping(ctx); err != nil {
				failed = true
				fmt.Fprintln(out, errorStyle.Render("❌ Session store not answering:"), err)
			} else {
				fmt.Fprintln(out, successStyle.Render("✅ Session store ready"))
				cred, err := internal.NewCredentialStore(store).Load(ctx)
				if err != nil {
					fmt.Fprintln(out, warningStyle.Render("⚠️  Stored session unreadable:"), err)
				} else if cred != nil {
					phase = internal.PhaseAuthenticated
				}
			}
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Database: %s\n", cfg.DatabasePath())
			}
		}
		fmt.Fprintln(out)

		// Step 3: Server
		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting translation server..."))
		pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
		if err := backend.New(cfg.Server, cfg.RequestTimeout).Ping(pingCtx); err != nil {
			failed = true
			fmt.Fprintln(out, errorStyle.Render("❌ Server unreachable:"), err)
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ Server reachable"))
		}
		fmt.Fprintln(out)

		// Step 4: Session
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking session..."))
		if phase == internal.PhaseAuthenticated {
			fmt.Fprintln(out, successStyle.Render("✅ Logged in"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not logged in (run 'signbridge login')"))
		}
		fmt.Fprintln(out)

		if failed {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("%w: health check failed", errReported)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed information")
}
