package cmd

import (
	"fmt"

	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

// taskCmd groups commands for tasks submitted with --no-wait
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect or cancel a translation task",
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the server-side status of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := current.client.GetTaskStatus(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch task %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, labelStyle.Render("Task")+valueStyle.Render(args[0]))
		fmt.Fprintln(out, labelStyle.Render("Status")+valueStyle.Render(report.Status))
		switch internal.TaskStatus(report.Status) {
		case internal.TaskCompleted:
			if report.Result != nil {
				fmt.Fprintln(out, labelStyle.Render("Result")+valueStyle.Render(report.Result.TranslatedText))
			}
		case internal.TaskFailed:
			if report.Error != "" {
				fmt.Fprintln(out, labelStyle.Render("Reason")+valueStyle.Render(report.Error))
			}
		}
		return nil
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Ask the server to stop a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.client.CancelTask(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to cancel task %s: %w", args[0], err)
		}
		internal.PrintSuccess(fmt.Sprintf("Task %s cancelled", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskCancelCmd)
}
