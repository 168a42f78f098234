package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/iksnae/signbridge/internal"
	"github.com/iksnae/signbridge/internal/export"
	"github.com/spf13/cobra"
)

var (
	savedOriginal    string
	savedTranslated  string
	savedFrom        string
	savedTo          string
	savedFromHistory int
	savedFormat      string
	savedOutput      string
)

// savedCmd groups the saved-translation commands
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Translations saved to your account",
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := current.saved.List(cmd.Context())
		if err != nil {
			return err
		}
		printTranslations(cmd.OutOrStdout(), "Saved translations", items, true)
		return nil
	},
}

var savedAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a translation",
	Long: `Save a translation to your account, either by text or from recent history.

  signbridge saved add --from-history 1
  signbridge saved add --original "HELLO" --translated "hello" --from ase --to en

Saving a translation that is already saved does nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := savedEntryFromFlags()
		if err != nil {
			return err
		}
		return runGated(cmd, internal.ActionSaveTranslation, func(ctx context.Context) error {
			return saveTranslation(ctx, entry)
		})
	},
}

var savedClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved translation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionViewSaved, func(ctx context.Context) error {
			if !current.saved.Clear(ctx) {
				internal.PrintError("Could not clear saved translations")
				return fmt.Errorf("%w: clear failed", errReported)
			}
			internal.PrintSuccess("Saved translations cleared")
			return nil
		})
	},
}

var savedExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionViewSaved, func(ctx context.Context) error {
			items, err := current.saved.List(ctx)
			if err != nil {
				return err
			}
			return writeExport(cmd, export.SavedDocument(internal.Deduplicate(items)), savedFormat, savedOutput)
		})
	},
}

func savedEntryFromFlags() (internal.SavedTranslation, error) {
	if savedFromHistory > 0 {
		entries, err := current.history.Entries()
		if err != nil {
			return internal.SavedTranslation{}, err
		}
		if savedFromHistory > len(entries) {
			return internal.SavedTranslation{}, fmt.Errorf("history has %d entries, no entry #%d", len(entries), savedFromHistory)
		}
		return internal.SavedFromHistory(entries[savedFromHistory-1]), nil
	}

	if savedOriginal == "" || savedTranslated == "" {
		return internal.SavedTranslation{}, fmt.Errorf("either --from-history or both --original and --translated are required")
	}
	defaults := current.cfg.PipelineDefaults()
	entry := internal.SavedTranslation{
		SourceLang:     defaults.SignLanguage,
		TargetLang:     defaults.TargetLanguage,
		OriginalText:   savedOriginal,
		TranslatedText: savedTranslated,
	}
	if savedFrom != "" {
		entry.SourceLang = savedFrom
	}
	if savedTo != "" {
		entry.TargetLang = savedTo
	}
	return entry, nil
}

// saveTranslation saves entry and prints the outcome
func saveTranslation(ctx context.Context, entry internal.SavedTranslation) error {
	outcome, err := current.saved.Save(ctx, entry)
	if errors.Is(err, internal.ErrUnauthorized) {
		internal.PrintError("The server rejected your session, please log in again")
		return fmt.Errorf("%w: %v", errReported, err)
	}
	if err != nil {
		internal.PrintError(fmt.Sprintf("Failed to save translation: %v", err))
		return fmt.Errorf("%w: %v", errReported, err)
	}
	if outcome == internal.SaveDuplicate {
		internal.PrintWarning("Translation already saved")
		return nil
	}
	internal.PrintSuccess("Translation saved")
	return nil
}

// writeExport renders doc in format to path, or to stdout when path is empty
func writeExport(cmd *cobra.Command, doc *export.Document, format, path string) error {
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	if path == "" {
		return exporter.Export(doc, cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exporter.Export(doc, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	internal.PrintSuccess(fmt.Sprintf("Exported %d translation(s) to %s", len(doc.Items), path))
	return nil
}

func init() {
	rootCmd.AddCommand(savedCmd)
	savedCmd.AddCommand(savedListCmd, savedAddCmd, savedClearCmd, savedExportCmd)

	savedAddCmd.Flags().StringVar(&savedOriginal, "original", "", "Original (signed) text")
	savedAddCmd.Flags().StringVar(&savedTranslated, "translated", "", "Translated text")
	savedAddCmd.Flags().StringVar(&savedFrom, "from", "", "Sign language code (default from config)")
	savedAddCmd.Flags().StringVar(&savedTo, "to", "", "Target language code (default from config)")
	savedAddCmd.Flags().IntVar(&savedFromHistory, "from-history", 0, "Save entry N of 'signbridge history list'")

	savedExportCmd.Flags().StringVarP(&savedFormat, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	savedExportCmd.Flags().StringVarP(&savedOutput, "output", "o", "", "Output file (default stdout)")
}
