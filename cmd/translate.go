package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

var (
	translateSignLang string
	translateTo       string
	translateAudio    bool
	translateNoWait   bool
	translateSave     bool
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate <video>",
	Short: "Translate a sign-language video",
	Long: `Upload a sign-language video and wait for its translation.

Videos larger than 100MB are rejected before anything is uploaded. While the
server works on the video its status is polled every few seconds; press Ctrl-C
to cancel the task.

The translation is added to your recent history unless history is disabled.
Use --save to also keep it in your saved translations (requires login).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx := cmd.Context()

		opts := a.cfg.PipelineDefaults()
		if cmd.Flags().Changed("sign-lang") {
			opts.SignLanguage = translateSignLang
		}
		if cmd.Flags().Changed("to") {
			opts.TargetLanguage = translateTo
		}
		if cmd.Flags().Changed("audio") {
			opts.Audio = translateAudio
		}

		asset, err := internal.NewFileAsset(args[0])
		if err != nil {
			return err
		}

		spinner := internal.NewSpinner(fmt.Sprintf("Uploading %s", asset.Name()))
		spinner.Start(ctx)
		unsubscribe := a.engine.Subscribe(func(task internal.TranslationTask) {
			spinner.Update(fmt.Sprintf("Task %s: %s", task.ID, task.Status))
		})
		defer unsubscribe()

		task, err := a.engine.Submit(ctx, asset, opts)
		if err != nil {
			spinner.Stop()
			return reportSubmitError(err)
		}

		if translateNoWait {
			spinner.Stop()
			internal.PrintSuccess(fmt.Sprintf("Task %s submitted", task.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Check on it with: signbridge task status %s\n", task.ID)
			return nil
		}

		final, interrupted, err := waitOrInterrupt(ctx, task.ID)
		spinner.Stop()
		if interrupted {
			cancelled, cancelErr := a.engine.Cancel(context.Background(), task.ID)
			if cancelErr != nil {
				internal.LogWarn("%v", cancelErr)
			}
			if cancelled.Status == internal.TaskCancelled {
				internal.PrintWarning(fmt.Sprintf("Task %s cancelled", task.ID))
				return fmt.Errorf("%w: cancelled", errReported)
			}
			final = cancelled
		} else if err != nil {
			return err
		}

		return reportFinalTask(cmd, final, opts)
	},
}

// waitOrInterrupt waits for the task while watching for SIGINT
func waitOrInterrupt(ctx context.Context, taskID string) (internal.TranslationTask, bool, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	waitCtx, stopWait := context.WithCancel(ctx)
	defer stopWait()

	interrupted := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			close(interrupted)
			stopWait()
		case <-waitCtx.Done():
		}
	}()

	final, err := current.engine.Wait(waitCtx, taskID)
	select {
	case <-interrupted:
		return final, true, nil
	default:
		return final, false, err
	}
}

func reportSubmitError(err error) error {
	var tooLarge *internal.AssetTooLargeError
	var subErr *internal.SubmissionError
	switch {
	case errors.As(err, &tooLarge):
		internal.PrintError(fmt.Sprintf("%s is too large (%.1f MB, limit %d MB)",
			tooLarge.Name, float64(tooLarge.Size)/1e6, tooLarge.Limit/1e6))
	case errors.As(err, &subErr):
		internal.PrintError(fmt.Sprintf("Upload failed: %s", subErr.Reason))
	default:
		return err
	}
	return fmt.Errorf("%w: %v", errReported, err)
}

func reportFinalTask(cmd *cobra.Command, task internal.TranslationTask, opts internal.PipelineOptions) error {
	switch task.Status {
	case internal.TaskCompleted:
	case internal.TaskFailed:
		if errors.Is(task.Err, internal.ErrNetwork) {
			internal.PrintError(fmt.Sprintf("Task %s failed: lost connection to the server", task.ID))
		} else {
			internal.PrintError(fmt.Sprintf("Task %s failed: %s", task.ID, task.Reason))
		}
		return fmt.Errorf("%w: task failed", errReported)
	case internal.TaskCancelled:
		internal.PrintWarning(fmt.Sprintf("Task %s was cancelled", task.ID))
		return fmt.Errorf("%w: task cancelled", errReported)
	default:
		return fmt.Errorf("task %s stopped while %s", task.ID, task.Status)
	}

	a := current
	ctx := cmd.Context()
	result := task.Result
	internal.PrintSuccess(fmt.Sprintf("Task %s completed", task.ID))
	fmt.Fprintln(cmd.OutOrStdout(), result.TranslatedText)
	if result.AudioURL != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Audio: %s\n", result.AudioURL)
	}

	original := result.SourceText
	if original == "" {
		original = task.AssetName
	}
	entry := internal.HistoryEntry{
		SourceLang:     opts.SignLanguage,
		TargetLang:     opts.TargetLanguage,
		OriginalText:   original,
		TranslatedText: result.TranslatedText,
	}
	if recorded, err := a.history.Record(ctx, entry); err != nil {
		internal.LogWarn("Failed to record history: %v", err)
	} else if !recorded {
		internal.PrintInfo("History is off, translation not recorded")
	}

	if !translateSave {
		return nil
	}
	return runGated(cmd, internal.ActionSaveTranslation, func(ctx context.Context) error {
		return saveTranslation(ctx, internal.SavedFromHistory(entry))
	})
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringVar(&translateSignLang, "sign-lang", "", "Sign language code of the video (default from config)")
	translateCmd.Flags().StringVar(&translateTo, "to", "", "Target spoken language code (default from config)")
	translateCmd.Flags().BoolVar(&translateAudio, "audio", false, "Also synthesize audio for the translation")
	translateCmd.Flags().BoolVar(&translateNoWait, "no-wait", false, "Submit and exit without waiting for the result")
	translateCmd.Flags().BoolVar(&translateSave, "save", false, "Save the translation to your account")
}
