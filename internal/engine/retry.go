package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ckartal/snipebot/internal/domain"
)

const (
	// retryPruneAge is how old an exhausted entry must be before the
	// post-enqueue prune removes it. Entries below max attempts are kept
	// regardless of age, so an illiquid token whose sale keeps failing can
	// sit in the queue indefinitely; the prune log surfaces those instead
	// of dropping them.
	retryPruneAge = 24 * time.Hour

	// retryBackoffCap bounds the per-entry backoff window.
	retryBackoffCap = 15 * time.Minute

	// drainPause is the courtesy gap between consecutive venue calls in a
	// single drain pass, to stay under venue rate limits.
	drainPause = 2 * time.Second
)

// RecoveredCloser finalizes bookkeeping for a position whose failed sale
// eventually went through.
type RecoveredCloser interface {
	CloseRecovered(ctx context.Context, mint string, exitPrice float64)
}

// RetryQueue holds compensating exits for sell orders the venue rejected and
// replays them on a backoff schedule. Only sell failures ever enter the
// queue; failed buys are not retried.
type RetryQueue struct {
	mu      sync.Mutex
	entries map[string]*domain.FailedSale

	executor domain.TradeExecutor
	account  string
	pause    time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewRetryQueue creates an empty queue that sells through executor on behalf
// of account.
func NewRetryQueue(executor domain.TradeExecutor, account string, logger *slog.Logger) *RetryQueue {
	return &RetryQueue{
		entries:  make(map[string]*domain.FailedSale),
		executor: executor,
		account:  account,
		pause:    drainPause,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "retry_queue")),
	}
}

// Enqueue records a failed sale for the trade's mint. An existing entry is
// bumped (attempt count, last-attempt time, exit price) instead of
// duplicated. Every enqueue ends with a prune pass.
func (q *RetryQueue) Enqueue(rec domain.TradeRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now().UTC()
	if existing, ok := q.entries[rec.Mint]; ok {
		existing.Attempts++
		existing.LastAttemptAt = now
		existing.ExitPrice = rec.ExitPrice
		q.logger.Info("retry_queue: entry bumped",
			slog.String("mint", rec.Mint),
			slog.Int("attempts", existing.Attempts),
		)
	} else {
		q.entries[rec.Mint] = &domain.FailedSale{
			Mint:          rec.Mint,
			Symbol:        rec.Symbol,
			AddedAt:       now,
			LastAttemptAt: now,
			Attempts:      1,
			MaxAttempts:   domain.FailedSaleMaxAttempts,
			ExitPrice:     rec.ExitPrice,
			EntryPrice:    rec.EntryPrice,
			Investment:    rec.Investment,
			Quantity:      rec.Quantity,
		}
		q.logger.Info("retry_queue: entry added",
			slog.String("mint", rec.Mint),
			slog.String("symbol", rec.Symbol),
		)
	}

	q.pruneLocked(now)
}

// pruneLocked removes entries that are both older than retryPruneAge and out
// of attempts. Caller holds q.mu.
func (q *RetryQueue) pruneLocked(now time.Time) {
	var stuck int
	for mint, entry := range q.entries {
		old := now.Sub(entry.AddedAt) > retryPruneAge
		if old && entry.Exhausted() {
			delete(q.entries, mint)
			q.logger.Info("retry_queue: pruned exhausted entry",
				slog.String("mint", mint),
				slog.Int("attempts", entry.Attempts),
			)
			continue
		}
		if old {
			stuck++
		}
	}
	if stuck > 0 {
		q.logger.Warn("retry_queue: stale entries below attempt cap retained",
			slog.Int("count", stuck),
		)
	}
}

// backoff returns how long an entry must wait after its last attempt before
// the next one: one minute per attempt, capped at fifteen.
func backoff(attempts int) time.Duration {
	d := time.Duration(attempts) * time.Minute
	if d > retryBackoffCap {
		d = retryBackoffCap
	}
	return d
}

// terminalFailure classifies venue failure messages that make further
// retries pointless: the token is simply not in custody anymore.
func terminalFailure(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range []string{
		"token not found",
		"could not find",
		"zero balance",
		"no balance",
		"no token accounts",
		"no accounts",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Drain replays every due entry against the venue: entries at max attempts
// are skipped, entries inside their backoff window are left for a later
// pass, the rest are sold for the full remaining balance. Successful sales
// are removed and handed to the closer; transient failures are bumped;
// terminal failures are dropped. A short pause separates consecutive venue
// calls within one pass.
func (q *RetryQueue) Drain(ctx context.Context, closer RecoveredCloser) {
	q.mu.Lock()
	due := make([]domain.FailedSale, 0, len(q.entries))
	now := q.now().UTC()
	for _, entry := range q.entries {
		if entry.Exhausted() {
			continue
		}
		if now.Sub(entry.LastAttemptAt) < backoff(entry.Attempts) {
			continue
		}
		due = append(due, *entry)
	}
	q.mu.Unlock()

	if len(due) == 0 {
		return
	}
	q.logger.Info("retry_queue: draining", slog.Int("due", len(due)))

	for i, entry := range due {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && q.pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.pause):
			}
		}

		// Amount 0 sells the entire remaining balance.
		res, err := q.executor.Sell(ctx, q.account, entry.Mint, 0)
		if err == nil && res.Success {
			q.mu.Lock()
			delete(q.entries, entry.Mint)
			q.mu.Unlock()
			q.logger.Info("retry_queue: sale recovered",
				slog.String("mint", entry.Mint),
				slog.String("tx", res.TxID),
				slog.Int("attempts", entry.Attempts),
			)
			closer.CloseRecovered(ctx, entry.Mint, entry.ExitPrice)
			continue
		}

		msg := execMessage(res, err)
		q.mu.Lock()
		if live, ok := q.entries[entry.Mint]; ok {
			live.Attempts++
			live.LastAttemptAt = q.now().UTC()
			if terminalFailure(msg) {
				delete(q.entries, entry.Mint)
				q.logger.Warn("retry_queue: terminal failure, dropping entry",
					slog.String("mint", entry.Mint),
					slog.String("message", msg),
				)
			} else {
				q.logger.Warn("retry_queue: attempt failed",
					slog.String("mint", entry.Mint),
					slog.Int("attempts", live.Attempts),
					slog.String("message", msg),
				)
			}
		}
		q.mu.Unlock()
	}
}

// Len returns the number of queued entries.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a copy of the queue for persistence.
func (q *RetryQueue) Entries() []domain.FailedSale {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.FailedSale, 0, len(q.entries))
	for _, entry := range q.entries {
		out = append(out, *entry)
	}
	return out
}

// Restore replaces the queue content from a snapshot.
func (q *RetryQueue) Restore(entries []domain.FailedSale) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = make(map[string]*domain.FailedSale, len(entries))
	for _, entry := range entries {
		e := entry
		if e.MaxAttempts == 0 {
			e.MaxAttempts = domain.FailedSaleMaxAttempts
		}
		q.entries[e.Mint] = &e
	}
}
