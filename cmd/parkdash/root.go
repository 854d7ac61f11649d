package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/parkdash/internal/cli"
	"github.com/aretw0/parkdash/internal/config"
	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parkdash",
	Short: "parkdash drives the parking gate dashboard API from the terminal",
	Long: `parkdash keeps the state of the parking dashboard (arrivals, weekly reports,
gate logs, RFID cards, vehicle types and users) in a local store, and exposes it
as a CLI, an HTTP gateway with live updates, and an MCP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultFile, "YAML configuration file")
	flags.String("env-file", config.DefaultEnvFile, "dotenv file with PARKDASH_* overrides")
	flags.String("base-url", "", "API base URL")
	flags.StringP("session", "s", "", "session whose credentials are used")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")
	flags.StringP("output", "o", string(tui.FormatTable), "output format: table, json, csv or markdown")
}

// loadConfig merges the configuration sources, then applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	file, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env-file")

	cfg, err := (&config.Loader{
		File:     file,
		Required: flags.Changed("config"),
		EnvFile:  envFile,
	}).Load()
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"base-url":   &cfg.BaseURL,
		"session":    &cfg.Session,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
	}
	for name, target := range overrides {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the App for a command. The caller must Close it.
func openApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts = append([]cli.AppOption{cli.WithStderr(cmd.ErrOrStderr())}, opts...)
	return cli.NewApp(*cfg, opts...)
}

// closeApp waits briefly for in-flight operations.
func closeApp(app *cli.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		app.Logger.Warn("Close failed", "err", err)
	}
}

func outputFormat(cmd *cobra.Command) (tui.Format, error) {
	raw, _ := cmd.Flags().GetString("output")
	return tui.ParseFormat(raw)
}
