package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTickEvaluateClosesDuePositions(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	oracle.set("mint1", 1.6)

	s := NewScheduler(m, time.Second, time.Minute, testLogger())
	s.TickEvaluate(context.Background())

	if len(m.OpenPositions()) != 0 {
		t.Error("due position still open after evaluate tick")
	}
	if len(m.History()) != 1 {
		t.Errorf("history = %d, want 1", len(m.History()))
	}
}

func TestTickDrainDrainsRetryQueue(t *testing.T) {
	m, _, executor := newTestManager(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.retry.now = func() time.Time { return base }
	m.EnqueueFailedSale(testRecord("mint1"))
	m.retry.now = func() time.Time { return base.Add(30 * time.Minute) }

	s := NewScheduler(m, time.Second, time.Minute, testLogger())
	s.TickDrain(context.Background())

	if len(m.RetryBacklog()) != 0 {
		t.Error("backlog not drained by drain tick")
	}
	if len(executor.sellCalls()) != 1 {
		t.Errorf("sell calls = %d, want 1", len(executor.sellCalls()))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	m, _, _ := newTestManager(t)
	s := NewScheduler(m, time.Millisecond, time.Millisecond, testLogger())
	s.SetArchive(func(ctx context.Context) error { return nil }, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v, want context deadline error", err)
	}
}
