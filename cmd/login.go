package cmd

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/iksnae/signbridge/internal"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the translation service",
	Long: `Sign in with your account email and password.

When --password is omitted the password is read from the first line of stdin,
so it can be piped in from a password manager.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := loginEmail
		password := loginPassword
		in := bufio.NewReader(cmd.InOrStdin())
		if email == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
			email = readLine(in)
		}
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password = readLine(in)
		}
		return performLogin(cmd, email, password)
	},
}

// performLogin runs the external login flow and hands the result to the session
func performLogin(cmd *cobra.Command, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}
	a := current
	ctx := cmd.Context()

	cred, err := a.client.Login(ctx, email, password)
	if errors.Is(err, internal.ErrUnauthorized) {
		internal.PrintError("Invalid email or password")
		return fmt.Errorf("%w: %v", errReported, err)
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := a.creds.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if err := a.session.SignIn(ctx); err != nil {
		return err
	}

	name := cred.Profile.DisplayName
	if name == "" {
		name = email
	}
	internal.PrintSuccess(fmt.Sprintf("Logged in as %s", name))
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (read from stdin when omitted)")
}
