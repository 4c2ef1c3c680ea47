package app

import (
	"context"
	"fmt"

	"github.com/prostogovorite/helpbot/bot/gateway"
	"github.com/prostogovorite/helpbot/bot/journal"
	"github.com/prostogovorite/helpbot/core/bootstrap"
	corecmd "github.com/prostogovorite/helpbot/core/cmd"
	coreconfig "github.com/prostogovorite/helpbot/core/config"
	"github.com/prostogovorite/helpbot/core/health"
	"github.com/prostogovorite/helpbot/core/logger"
	tg "github.com/prostogovorite/helpbot/core/telegram"
)

// Serve runs the bot and the liveness probe until ctx ends or a signal
// arrives. Configuration and content errors return before anything serves.
func Serve(ctx context.Context, cfg *coreconfig.Config) error {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:        cfg,
		Migrations:    journal.Migrations,
		MigrationsDir: journal.MigrationsDir,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	content, err := LoadContent(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return fmt.Errorf("content: %w", err)
	}

	var rec journal.Recorder = journal.Nop{}
	if infra.DB != nil {
		rec = journal.NewPostgres(infra.DB)
	}

	bot, err := tg.NewBot(cfg)
	if err != nil {
		_ = infra.Close()
		return err
	}
	gw, err := gateway.New(bot)
	if err != nil {
		_ = infra.Close()
		return err
	}
	a, err := New(cfg, content, gw, rec)
	if err != nil {
		_ = infra.Close()
		return err
	}
	runOpts, err := a.RunOptions(bot)
	if err != nil {
		_ = infra.Close()
		return err
	}

	tasks := []corecmd.Task{{
		Name: "telegram",
		Run:  func(ctx context.Context) error { return tg.RunTelegram(ctx, runOpts) },
	}}
	if cfg.Health.IsEnabled() {
		probe := health.New(cfg.Health.Listen)
		tasks = append(tasks, corecmd.Task{Name: "health", Run: probe.Run})
	}

	return corecmd.Run(ctx, corecmd.Options{
		Tasks: tasks,
		OnStop: func(context.Context) error {
			return infra.Close()
		},
	})
}
