// Package notify pushes position lifecycle alerts to chat channels. Every
// registered sender receives each notification; an event filter lets
// operators mute the noisier lifecycle events.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Lifecycle event names emitted by the tracker.
const (
	EventPositionOpened = "position_opened"
	EventPositionClosed = "position_closed"
	EventBuyFailed      = "buy_failed"
	EventSellFailed     = "sell_failed"
)

// Sender delivers a single notification over one channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs (e.g. "telegram").
	Name() string
}

// Notifier fans notifications out to the configured senders, filtered by
// event name. An empty filter allows every event through.
type Notifier struct {
	senders []Sender
	allowed map[string]bool
	logger  *slog.Logger
}

// New creates a Notifier delivering to senders. Only events named in events
// pass the filter; an empty slice allows everything.
func New(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		e = strings.TrimSpace(e)
		if e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the notification to all senders when the event passes the
// filter. Individual sender failures are collected; one failing channel does
// not block the others.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.allowed) > 0 && !n.allowed[event] {
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.WarnContext(ctx, "notifier: send failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(failed, "; "))
	}
	return nil
}
