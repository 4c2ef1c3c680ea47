package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prostogovorite/helpbot/bot/app"
	coreconfig "github.com/prostogovorite/helpbot/core/config"
)

func TestPrintContent(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}
	if err := coreconfig.Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	content, err := app.LoadContent(context.Background(), cfg)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	var buf bytes.Buffer
	if err := printContent(&buf, cfg, content); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "content: embedded") || !strings.Contains(out, "menu: inline") {
		t.Fatalf("header missing in %q", out)
	}
	for _, topic := range content.Catalog.Topics() {
		if !strings.Contains(out, topic.ID) {
			t.Fatalf("topic %s missing in %q", topic.ID, out)
		}
	}
}

func TestConfigPathPrefersFlag(t *testing.T) {
	t.Setenv("CONFIG_PATH", "env.yaml")
	old := cfgFile
	defer func() { cfgFile = old }()

	cfgFile = ""
	if got := configPath(); got != "env.yaml" {
		t.Fatalf("configPath = %q", got)
	}
	cfgFile = "flag.yaml"
	if got := configPath(); got != "flag.yaml" {
		t.Fatalf("configPath = %q", got)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "helpbot ") {
		t.Fatalf("version output = %q", buf.String())
	}
}
