package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "helpbot",
	Short: "Menu-driven Telegram help bot",
	Long: `helpbot answers /start with a welcome text and a topic menu, and replies
to every topic button with its canned text. Without a subcommand it serves.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command and reports the error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $CONFIG_PATH)")
}

// configPath prefers the flag, then CONFIG_PATH. Empty means environment only.
func configPath() string {
	if p := strings.TrimSpace(cfgFile); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv("CONFIG_PATH"))
}
