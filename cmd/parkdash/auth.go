package main

import (
	"fmt"

	"github.com/aretw0/parkdash/internal/cli"
	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/redact"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session tokens",
	Long: `Authenticates against the API and persists the access token, refresh token
and role under the selected session. Missing credentials are prompted for;
the password is read without echo on terminals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		prompt := cli.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())

		creds, err := cli.Login(cmd.Context(), app, prompt, username, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in to session '%s' as %s.\n", app.Client.SessionID(), roleOrUnknown(creds.Role))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the tokens of the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if err := app.Client.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged out of session '%s'.\n", app.Client.SessionID())
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		profile, err := app.Client.Store.Auth.GetAuthMe.Run(cmd.Context(), domain.Args{})
		if err != nil {
			return err
		}
		masked, err := redact.Value(profile)
		if err != nil {
			return err
		}
		return tui.Render(cmd.OutOrStdout(), format, "", masked, nil)
	},
}

func roleOrUnknown(role string) string {
	if role == "" {
		return "an unknown role"
	}
	return role
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("username", "u", "", "username (prompted when empty)")
	loginCmd.Flags().String("password", "", "password (prompted when empty)")
}
