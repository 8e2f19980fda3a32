// Package app wires the tracker's dependencies (postgres, redis, venue,
// feed, notifications, archival) and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ckartal/snipebot/internal/config"
)

// App is the root application object. It owns the configuration, logger, and
// the cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and runs the feed and scheduler until the
// context is cancelled. "track" mode trades (or shadows trades when
// auto-execute is off); "sim" mode never places venue orders and marks every
// position simulated.
func (a *App) Run(ctx context.Context) error {
	mode := strings.ToLower(a.cfg.Mode)
	switch mode {
	case "track", "sim":
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}

	a.logger.InfoContext(ctx, "app: starting",
		slog.String("mode", mode),
		slog.Bool("auto_execute", a.cfg.Trading.AutoExecute),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, mode == "sim", a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if err := deps.Manager.Restore(ctx); err != nil {
		return fmt.Errorf("app: restore state: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Scheduler.Run(gctx)
	})
	g.Go(func() error {
		return deps.Feed.Run(gctx)
	})

	err = g.Wait()

	// Let in-flight venue calls settle before tearing down connections.
	deps.Manager.Quiesce()
	return err
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
