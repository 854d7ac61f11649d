package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/parkdash/internal/cli"
	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/aretw0/parkdash/pkg/redact"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, refresh and remove the sessions kept by the configured credential store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := openCredentials(cmd)
		if err != nil {
			return err
		}
		defer creds.Close()

		sessions, err := creds.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions found.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show a session with its tokens masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		creds, err := openCredentials(cmd)
		if err != nil {
			return err
		}
		defer creds.Close()

		loaded, err := creds.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		masked, err := redact.Value(loaded)
		if err != nil {
			return err
		}
		return tui.Render(cmd.OutOrStdout(), format, "session "+args[0], masked, nil)
	},
}

var sessionRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token of the session for a new pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := app.Client.Refresh(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed session '%s'.\n", app.Client.SessionID())
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := openCredentials(cmd)
		if err != nil {
			return err
		}
		defer creds.Close()

		var errs []error
		for _, id := range args {
			if err := creds.Store.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func openCredentials(cmd *cobra.Command) (*cli.Credentials, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.OpenCredentials(cfg.Store)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRefreshCmd, sessionRmCmd)
}
