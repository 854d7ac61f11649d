package main

import (
	"log"
	"os"

	"github.com/aretw0/parkdash/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the dashboard store to AI agents as MCP tools and resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		// Stdout carries JSON-RPC on stdio: logs and toasts stay on stderr.
		log.SetOutput(os.Stderr)
		app, err := openApp(cmd, cli.WithStderr(os.Stderr), cli.WithQuietToasts())
		if err != nil {
			return err
		}
		defer closeApp(app)

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		if err := cli.ServeMCP(ctx, app, transport, addr); err != nil {
			return err
		}
		app.Logger.Info("MCP Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "127.0.0.1:8421", "Address to listen on (only for SSE)")
}
