package main

import (
	"github.com/aretw0/parkdash"
	"github.com/aretw0/parkdash/internal/cli"
	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: `Serves the store over HTTP: slice snapshots, operation dispatch, server-sent
state diffs on /events and Prometheus metrics on /metrics. With a refresh
schedule, the dashboard operations reload periodically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, cli.WithQuietToasts())
		if err != nil {
			return err
		}
		defer closeApp(app)

		if refresh, _ := cmd.Flags().GetString("refresh"); cmd.Flags().Changed("refresh") {
			app.Config.Serve.Refresh = refresh
		}
		addr, _ := cmd.Flags().GetString("addr")

		if cli.IsTerminal(cmd.ErrOrStderr()) {
			tui.PrintBanner(cmd.ErrOrStderr(), parkdash.Version)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Serve(ctx, app, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "address to listen on (default serve.addr)")
	serveCmd.Flags().String("refresh", "", `cron schedule reloading the dashboard, e.g. "@every 30s"`)
}
