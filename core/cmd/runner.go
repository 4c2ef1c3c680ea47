package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prostogovorite/helpbot/core/logger"
)

// Task is one long-running part of the process. Run must return once ctx
// is done.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Options describe the process tasks and shutdown hooks.
type Options struct {
	Tasks []Task

	// Signals default to SIGINT and SIGTERM.
	Signals []os.Signal

	// OnStop runs after every task has returned.
	OnStop func(ctx context.Context) error
}

// Run starts every task under one errgroup. The first task failure or a
// termination signal cancels the rest; Run returns when all have stopped.
func Run(parent context.Context, opts Options) error {
	if len(opts.Tasks) == 0 {
		return fmt.Errorf("cmd: no tasks to run")
	}
	if parent == nil {
		parent = context.Background()
	}
	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(parent, signals...)
	defer stop()

	startedAt := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range opts.Tasks {
		if task.Run == nil {
			continue
		}
		g.Go(func() error {
			err := task.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(gctx, logger.CompApp, "task.failed",
					slog.String("handler", task.Name),
					slog.String("err", err.Error()),
				)
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			logger.Debug(gctx, logger.CompApp, "task.stopped", slog.String("handler", task.Name))
			return nil
		})
	}
	logger.Info(ctx, logger.CompApp, "ready",
		slog.Int("tasks", len(opts.Tasks)),
		slog.Duration("startup_duration", logger.Took(startedAt)),
	)

	runErr := g.Wait()
	logger.Info(context.Background(), logger.CompApp, "shutdown",
		slog.String("status", logger.Status(runErr)),
	)

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx)); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}
