package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/signbridge/internal"
	"github.com/iksnae/signbridge/internal/export"
	"github.com/spf13/cobra"
)

var (
	historyFormat string
	historyOutput string
)

// historyCmd groups the recent-history commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Recent translations kept on this device",
	Long: `Your last 5 translations, most recent first. History never leaves this
device; use 'signbridge history disable' to stop recording it.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionViewHistory, func(ctx context.Context) error {
			entries, err := current.history.Entries()
			if err != nil {
				return err
			}
			doc := export.HistoryDocument(entries)
			printTranslations(cmd.OutOrStdout(), doc.Title, doc.Items, false)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget recent translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionViewHistory, func(ctx context.Context) error {
			if err := current.history.Clear(); err != nil {
				return err
			}
			internal.PrintSuccess("History cleared")
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionViewHistory, func(ctx context.Context) error {
			entries, err := current.history.Entries()
			if err != nil {
				return err
			}
			return writeExport(cmd, export.HistoryDocument(entries), historyFormat, historyOutput)
		})
	},
}

func historyToggleCmd(enable bool) *cobra.Command {
	use, short, done := "disable", "Stop recording recent translations", "History disabled"
	if enable {
		use, short, done = "enable", "Record recent translations", "History enabled"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGated(cmd, internal.ActionOpenSettings, func(ctx context.Context) error {
				if err := current.prefs.SetHistoryEnabled(ctx, enable); err != nil {
					return fmt.Errorf("failed to update preference: %w", err)
				}
				internal.PrintSuccess(done)
				return nil
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyClearCmd, historyExportCmd,
		historyToggleCmd(true), historyToggleCmd(false))
	historyExportCmd.Flags().StringVarP(&historyFormat, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	historyExportCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Output file (default stdout)")
}
