package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

var accountDeleteYes bool

// accountCmd groups account management commands
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your account",
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete your account",
	Long: `Permanently delete your account and everything saved to it, then sign out.

This cannot be undone. Pass --yes to confirm.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionDeleteAccount, func(ctx context.Context) error {
			if !accountDeleteYes {
				return fmt.Errorf("refusing to delete the account without --yes")
			}
			if err := current.session.DeleteAccount(ctx); err != nil {
				return err
			}
			internal.PrintSuccess("Account deleted")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountDeleteCmd.Flags().BoolVar(&accountDeleteYes, "yes", false, "Confirm account deletion")
}
