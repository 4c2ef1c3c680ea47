package main

import (
	"fmt"

	"github.com/prostogovorite/helpbot/core/buildinfo"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Read().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
