package main

import (
	"fmt"

	"github.com/aretw0/parkdash/internal/cli"
	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Load the dashboard and summarise every slice",
	Long: `Dispatches the dashboard operations (serve.operations in the configuration)
in parallel and prints whether each slice loaded, failed or is still loading.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, cli.WithQuietToasts())
		if err != nil {
			return err
		}
		defer closeApp(app)

		tags := app.Config.Serve.Operations
		loadErr := cli.LoadDashboard(cmd.Context(), app.Client.Store, tags)
		if loadErr != nil {
			app.Logger.Debug("Dashboard load finished with failures", "err", loadErr)
		}

		md := tui.Summary("parkdash · "+app.Client.SessionID(), cli.SliceStatuses(app.Client.Store, tags))
		out := cmd.OutOrStdout()
		if !cli.IsTerminal(out) {
			fmt.Fprint(out, md)
			return nil
		}

		width := 0
		if f, ok := out.(interface{ Fd() uintptr }); ok {
			width, _, _ = term.GetSize(int(f.Fd()))
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		rendered, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
