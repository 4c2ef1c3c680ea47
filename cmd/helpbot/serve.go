package main

import (
	"github.com/prostogovorite/helpbot/bot/app"
	coreconfig "github.com/prostogovorite/helpbot/core/config"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and the liveness endpoint",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := coreconfig.Load(configPath())
	if err != nil {
		return err
	}
	return app.Serve(cmd.Context(), cfg)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
