package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler drives the engine's two cadences: a fast exit-evaluation tick
// and a slow retry-queue drain, plus an optional archival job. Each cadence
// is exposed as a manually invocable tick so tests can drive time
// deterministically; Run wires them to wall-clock tickers.
type Scheduler struct {
	mgr *Manager

	evaluateEvery time.Duration
	drainEvery    time.Duration

	archive      func(ctx context.Context) error
	archiveEvery time.Duration

	logger *slog.Logger
}

// NewScheduler creates a scheduler for the given manager and cadences.
func NewScheduler(mgr *Manager, evaluateEvery, drainEvery time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		mgr:           mgr,
		evaluateEvery: evaluateEvery,
		drainEvery:    drainEvery,
		logger:        logger.With(slog.String("component", "scheduler")),
	}
}

// SetArchive attaches an optional periodic archival job. Must be called
// before Run.
func (s *Scheduler) SetArchive(fn func(ctx context.Context) error, every time.Duration) {
	s.archive = fn
	s.archiveEvery = every
}

// TickEvaluate runs one exit-evaluation batch over all open positions.
// Nothing in a batch is fatal: per-position failures are logged inside
// EvaluateAll and a panicking evaluation is contained here so the next tick
// still happens.
func (s *Scheduler) TickEvaluate(ctx context.Context) {
	defer s.contain(ctx, "evaluate")
	s.mgr.EvaluateAll(ctx)
}

// TickDrain runs one retry-queue drain pass.
func (s *Scheduler) TickDrain(ctx context.Context) {
	defer s.contain(ctx, "drain")
	s.mgr.DrainRetryQueue(ctx)
}

func (s *Scheduler) contain(ctx context.Context, tick string) {
	if r := recover(); r != nil {
		s.logger.ErrorContext(ctx, "scheduler: tick panicked",
			slog.String("tick", tick),
			slog.Any("panic", r),
		)
	}
}

// Run starts the wall-clock loops and blocks until the context is
// cancelled. Loop errors never occur by construction (ticks swallow their
// own failures), so Run only returns the context's error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scheduler: starting",
		slog.Duration("evaluate_every", s.evaluateEvery),
		slog.Duration("drain_every", s.drainEvery),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(s.evaluateEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.TickEvaluate(ctx)
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.drainEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.TickDrain(ctx)
			}
		}
	})

	if s.archive != nil && s.archiveEvery > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(s.archiveEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := s.archive(ctx); err != nil {
						s.logger.WarnContext(ctx, "scheduler: archive failed",
							slog.String("error", err.Error()),
						)
					}
				}
			}
		})
	}

	err := g.Wait()
	s.logger.InfoContext(ctx, "scheduler: stopped")
	return err
}
