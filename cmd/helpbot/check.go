package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/prostogovorite/helpbot/bot/app"
	coreconfig "github.com/prostogovorite/helpbot/core/config"

	"github.com/spf13/cobra"
)

// placeholderToken satisfies Normalize; check never talks to Telegram.
const placeholderToken = "check"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate content and menu, then print the topic table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := coreconfig.Read(configPath())
		if err != nil {
			return err
		}
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			cfg.Telegram.Token = placeholderToken
		}
		if err := coreconfig.Normalize(cfg); err != nil {
			return err
		}
		content, err := app.LoadContent(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return printContent(cmd.OutOrStdout(), cfg, content)
	},
}

func printContent(out io.Writer, cfg *coreconfig.Config, content app.Content) error {
	source := cfg.Content.File
	if source == "" {
		source = "embedded"
	}
	m := content.Menu.Build()
	fmt.Fprintf(out, "content: %s\nmenu: %s, %d row(s)\n\n", source, m.Layout, len(m.Rows))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tBODY")
	for _, t := range content.Catalog.Topics() {
		fmt.Fprintf(tw, "%s\t%s\t%d chars\n", t.ID, t.Label, len([]rune(t.Body)))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
