package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGated(cmd, internal.ActionSignOut, func(ctx context.Context) error {
			if err := current.session.SignOut(ctx); err != nil {
				return fmt.Errorf("signed out, but the session store could not be cleared: %w", err)
			}
			internal.PrintSuccess("Logged out")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
