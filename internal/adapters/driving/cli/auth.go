package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Google account used for Drive and Docs",
	Long: `Sign in with the Google account whose Drive folders you want to query.

The OAuth client comes from a Google client-secrets JSON file, set with
'drivequery config set google.credentials_file <path>' or the
DRIVEQUERY_GOOGLE_CREDENTIALS environment variable.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed in account",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Google credentials",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if deps.Auth == nil {
		return errors.New("auth service not configured")
	}

	creds, err := deps.Auth.Login(cmd.Context(), func(url string) error {
		cmd.Println("Opening your browser to sign in. If it does not open, visit:")
		cmd.Println()
		cmd.Printf("  %s\n\n", url)
		return openBrowser(url)
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if creds.AccountIdentifier != "" {
		cmd.Printf("Signed in as %s\n", creds.AccountIdentifier)
	} else {
		cmd.Println("Signed in.")
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if deps.Auth == nil {
		return errors.New("auth service not configured")
	}

	creds, err := deps.Auth.Status(cmd.Context())
	if errors.Is(err, domain.ErrAuthRequired) {
		cmd.Println("Not signed in. Run 'drivequery auth login'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth status: %w", err)
	}

	account := creds.AccountIdentifier
	if account == "" {
		account = "(unknown account)"
	}
	cmd.Printf("Account:  %s\n", account)
	if creds.OAuth != nil && !creds.OAuth.Expiry.IsZero() {
		state := "valid"
		if creds.OAuth.IsExpired() {
			state = "expired"
		}
		cmd.Printf("Token:    %s until %s\n", state, creds.OAuth.Expiry.Local().Format(time.DateTime))
	}
	refresh := "no"
	if creds.HasRefreshToken() {
		refresh = "yes"
	}
	cmd.Printf("Refresh:  %s\n", refresh)
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if deps.Auth == nil {
		return errors.New("auth service not configured")
	}
	if err := deps.Auth.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	cmd.Println("Signed out.")
	return nil
}
