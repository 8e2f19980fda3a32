package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
}

func (s *fakeSender) Send(ctx context.Context, title, message string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	return nil
}

func (s *fakeSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFansOutToAllSenders(t *testing.T) {
	a := &fakeSender{name: "a"}
	b := &fakeSender{name: "b"}
	n := New([]Sender{a, b}, nil, testLogger())

	if err := n.Notify(context.Background(), EventPositionOpened, "title", "body"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", len(a.titles), len(b.titles))
	}
}

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "a"}
	n := New([]Sender{s}, []string{EventPositionClosed}, testLogger())

	n.Notify(context.Background(), EventPositionOpened, "skip", "")
	n.Notify(context.Background(), EventPositionClosed, "pass", "")

	if len(s.titles) != 1 || s.titles[0] != "pass" {
		t.Errorf("deliveries = %v, want only the allowed event", s.titles)
	}
}

func TestNotifyContinuesPastFailingSender(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("down")}
	good := &fakeSender{name: "good"}
	n := New([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), EventSellFailed, "title", "")
	if err == nil {
		t.Fatal("failing sender did not surface an error")
	}
	if len(good.titles) != 1 {
		t.Error("healthy sender skipped after a failing one")
	}
}

func TestNotifyNoSenders(t *testing.T) {
	n := New(nil, nil, testLogger())
	if err := n.Notify(context.Background(), EventPositionOpened, "t", "m"); err != nil {
		t.Errorf("Notify with no senders: %v", err)
	}
}
