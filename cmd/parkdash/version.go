package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/parkdash"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of parkdash",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "parkdash version %s\n", strings.TrimSpace(parkdash.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
