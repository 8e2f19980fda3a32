// Package engine implements the position lifecycle: entry gating, per-tick
// exit evaluation, close accounting, the failed-sale retry queue, and the
// derived profit statistics. All state mutation is serialized behind the
// Manager's lock; venue calls happen off the lock so a slow executor never
// stalls an evaluation batch.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ckartal/snipebot/internal/domain"
	"github.com/ckartal/snipebot/internal/store/memory"
)

// Notifier pushes human-facing alerts about position lifecycle events. It is
// optional; a nil Notifier disables notifications.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Manager owns the open-position book, the trade history, and the retry
// queue. It exposes the operations consumed by the chat command surface.
type Manager struct {
	mu      sync.Mutex
	book    *memory.Book
	history []domain.TradeRecord
	stats   domain.ProfitStats
	limits  domain.TradingLimits
	tracked map[string]struct{}

	retry *RetryQueue

	oracle   domain.PriceOracle
	executor domain.TradeExecutor
	snaps    domain.Snapshotter
	bus      domain.SignalBus
	notifier Notifier

	account   string
	simulated bool
	logger    *slog.Logger
	now       func() time.Time

	// pending tracks in-flight async venue calls so shutdown and tests can
	// wait for them to settle.
	pending sync.WaitGroup
}

// NewManager creates a Manager. snaps and bus may be nil; snapshotting and
// event publishing are then disabled. When simulated is true no venue orders
// are ever placed and every position is marked Simulated.
func NewManager(
	oracle domain.PriceOracle,
	executor domain.TradeExecutor,
	snaps domain.Snapshotter,
	bus domain.SignalBus,
	limits domain.TradingLimits,
	account string,
	simulated bool,
	logger *slog.Logger,
) *Manager {
	m := &Manager{
		book:      memory.NewBook(),
		limits:    limits,
		tracked:   trackedSet(limits.TrackedMints),
		oracle:    oracle,
		executor:  executor,
		snaps:     snaps,
		bus:       bus,
		account:   account,
		simulated: simulated,
		logger:    logger.With(slog.String("component", "engine")),
		now:       time.Now,
	}
	m.retry = NewRetryQueue(executor, account, logger)
	return m
}

// SetNotifier attaches an optional notification sink. Must be called before
// the scheduler starts.
func (m *Manager) SetNotifier(n Notifier) {
	m.notifier = n
}

func trackedSet(mints []string) map[string]struct{} {
	set := make(map[string]struct{}, len(mints))
	for _, mint := range mints {
		set[mint] = struct{}{}
	}
	return set
}

// ---------------------------------------------------------------------------
// Entry gating
// ---------------------------------------------------------------------------

// OpenPosition applies entry gating and, on acceptance, creates and stores a
// position for the alerted mint. Rejections are silent by design: the second
// return is false and no state changes. The position is tracked whether or
// not the best-effort buy below succeeds.
func (m *Manager) OpenPosition(ctx context.Context, mint string, alert domain.Alert, price domain.PriceInfo) (*domain.Position, bool) {
	entryPrice, usable := price.Resolve()
	if !usable {
		m.logger.DebugContext(ctx, "engine: open skipped, no usable price",
			slog.String("mint", mint),
		)
		return nil, false
	}

	m.mu.Lock()
	if !m.limits.TrackAll {
		if _, ok := m.tracked[mint]; !ok {
			m.mu.Unlock()
			m.logger.DebugContext(ctx, "engine: open skipped, mint not tracked",
				slog.String("mint", mint),
			)
			return nil, false
		}
	}
	if alert.Size < m.limits.MinAlertSize {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "engine: open skipped, alert below minimum size",
			slog.String("mint", mint),
			slog.Float64("size", alert.Size),
			slog.Float64("min", m.limits.MinAlertSize),
		)
		return nil, false
	}
	if _, exists := m.book.Get(mint); exists {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "engine: open skipped, position already open",
			slog.String("mint", mint),
		)
		return nil, false
	}
	if m.book.Len() >= m.limits.MaxPositions {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "engine: open skipped, max positions reached",
			slog.String("mint", mint),
			slog.Int("max", m.limits.MaxPositions),
		)
		return nil, false
	}

	pos := domain.NewPosition(
		mint, alert.Symbol,
		entryPrice, m.limits.DefaultInvestment,
		m.limits.TakeProfitFrac, m.limits.StopLossFrac,
		alert.Type, m.now().UTC(),
	)
	pos.Simulated = m.simulated
	m.book.Put(pos)
	m.recomputeStatsLocked()
	autoExec := m.limits.AutoExecute
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.publish(ctx, "position_opened", map[string]any{
		"mint":        mint,
		"symbol":      pos.Symbol,
		"entry_price": pos.EntryPrice,
		"investment":  pos.Investment,
		"quantity":    pos.Quantity,
		"alert_type":  pos.AlertType,
	})
	m.notify(ctx, "position_opened", "Position opened",
		fmt.Sprintf("%s @ %.10f (invested %.4f)", pos.Symbol, pos.EntryPrice, pos.Investment))

	m.logger.InfoContext(ctx, "engine: position opened",
		slog.String("mint", mint),
		slog.String("symbol", pos.Symbol),
		slog.Float64("entry_price", pos.EntryPrice),
		slog.Float64("investment", pos.Investment),
		slog.Float64("take_profit", pos.TakeProfit),
		slog.Float64("stop_loss", pos.StopLoss),
	)

	// Real-money entry is best effort: a failed buy is logged and published
	// but never retried, and the position stays tracked either way.
	if autoExec && !pos.Simulated {
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			buyCtx := context.WithoutCancel(ctx)
			res, err := m.executor.Buy(buyCtx, m.account, mint, pos.Investment)
			if err != nil || !res.Success {
				m.logger.ErrorContext(buyCtx, "engine: buy order failed",
					slog.String("mint", mint),
					slog.String("message", execMessage(res, err)),
				)
				m.publish(buyCtx, "buy_failed", map[string]any{
					"mint":    mint,
					"symbol":  pos.Symbol,
					"message": execMessage(res, err),
				})
				return
			}
			m.logger.InfoContext(buyCtx, "engine: buy order executed",
				slog.String("mint", mint),
				slog.String("tx", res.TxID),
			)
		}()
	}

	return &pos, true
}

// ---------------------------------------------------------------------------
// Exit evaluation
// ---------------------------------------------------------------------------

// Evaluate runs one exit-evaluation pass for a single mint. A missing
// position is a benign no-op (it may have closed between scheduling and
// execution) and returns (nil, nil), as does a close triggered by this pass.
// A position that stays open is returned with its refreshed state.
func (m *Manager) Evaluate(ctx context.Context, mint string) (*domain.Position, error) {
	m.mu.Lock()
	_, ok := m.book.Get(mint)
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}

	// Price lookup happens off the lock; the position is re-fetched after.
	var price float64
	var usable bool
	info, err := m.oracle.Lookup(ctx, mint)
	switch {
	case err == nil:
		price, usable = info.Resolve()
	case errors.Is(err, domain.ErrNotFound):
		// Never quoted yet; treated the same as an unusable value.
	default:
		m.logger.DebugContext(ctx, "engine: price lookup failed",
			slog.String("mint", mint),
			slog.String("error", err.Error()),
		)
	}

	m.mu.Lock()
	pos, ok := m.book.Get(mint)
	if !ok {
		m.mu.Unlock()
		return nil, nil
	}
	pos.LastCheckedAt = m.now().UTC()
	if !usable {
		m.book.Put(pos)
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "engine: no usable price, skipping tick",
			slog.String("mint", mint),
		)
		return &pos, nil
	}

	pos.ObservePrice(price)
	reason, hit := exitReason(pos, price)
	m.book.Put(pos)
	if !hit {
		m.mu.Unlock()
		return &pos, nil
	}

	rec, snap := m.closeLocked(mint, reason, price)
	m.mu.Unlock()
	if rec != nil {
		m.afterClose(ctx, *rec, snap)
	}
	return nil, nil
}

// exitReason checks the exit conditions in fixed priority order: custom
// target, then take-profit, then stop-loss. The first match wins even when
// several are simultaneously satisfied.
func exitReason(pos domain.Position, price float64) (domain.CloseReason, bool) {
	switch {
	case pos.TargetPrice != nil && price >= *pos.TargetPrice:
		return domain.CloseReasonCustomTarget, true
	case price >= pos.TakeProfit:
		return domain.CloseReasonTakeProfit, true
	case price <= pos.StopLoss:
		return domain.CloseReasonStopLoss, true
	}
	return "", false
}

// EvaluateAll evaluates every open position against a stable snapshot of the
// mints present at batch start. Positions closed mid-batch are skipped as
// no-ops; a failing mint never aborts the rest of the batch.
func (m *Manager) EvaluateAll(ctx context.Context) {
	for _, mint := range m.book.Keys() {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.Evaluate(ctx, mint); err != nil {
			m.logger.WarnContext(ctx, "engine: evaluation failed",
				slog.String("mint", mint),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ---------------------------------------------------------------------------
// Close accounting
// ---------------------------------------------------------------------------

// Close finalizes the position for mint at exitPrice. Bookkeeping (trade
// record, open-set removal, stats, snapshot) completes synchronously and
// unconditionally; the venue sell is issued asynchronously afterwards, with
// the retry queue compensating for sell failures. Returns nil when no open
// position exists, which makes a double close a logged no-op.
func (m *Manager) Close(ctx context.Context, mint string, reason domain.CloseReason, exitPrice float64) *domain.TradeRecord {
	m.mu.Lock()
	rec, snap := m.closeLocked(mint, reason, exitPrice)
	m.mu.Unlock()
	if rec == nil {
		m.logger.WarnContext(ctx, "engine: close requested for unknown position",
			slog.String("mint", mint),
			slog.String("reason", string(reason)),
		)
		return nil
	}
	m.afterClose(ctx, *rec, snap)
	return rec
}

// closeLocked performs the synchronous bookkeeping half of a close. Caller
// holds m.mu.
func (m *Manager) closeLocked(mint string, reason domain.CloseReason, exitPrice float64) (*domain.TradeRecord, domain.Snapshot) {
	pos, ok := m.book.Get(mint)
	if !ok {
		return nil, domain.Snapshot{}
	}

	now := m.now().UTC()
	gross := pos.Quantity * exitPrice
	fees := gross * m.limits.FeesPercent / 100
	slip := gross * m.limits.SlippagePercent / 100
	net := gross - fees - slip
	profit := net - pos.Investment
	profitPct := 0.0
	if pos.Investment > 0 {
		profitPct = profit / pos.Investment * 100
	}

	rec := domain.TradeRecord{
		ID:            uuid.New().String(),
		Mint:          pos.Mint,
		Symbol:        pos.Symbol,
		AlertType:     pos.AlertType,
		Simulated:     pos.Simulated,
		EntryTime:     pos.EntryTime,
		EntryPrice:    pos.EntryPrice,
		Investment:    pos.Investment,
		Quantity:      pos.Quantity,
		HighestPrice:  pos.HighestPrice,
		ExitPrice:     exitPrice,
		ExitTime:      now,
		Reason:        reason,
		GrossReturn:   gross,
		Fees:          fees,
		Slippage:      slip,
		NetReturn:     net,
		Profit:        profit,
		ProfitPercent: profitPct,
		Duration:      now.Sub(pos.EntryTime),
	}

	m.history = append(m.history, rec)
	m.book.Remove(mint)
	m.recomputeStatsLocked()
	return &rec, m.snapshotLocked()
}

// afterClose runs the off-lock side effects of a close: the asynchronous
// venue sell (with retry-queue compensation), snapshot persistence, and
// event fan-out. The trade record is already final at this point and is
// never rolled back by a failing sell.
func (m *Manager) afterClose(ctx context.Context, rec domain.TradeRecord, snap domain.Snapshot) {
	m.logger.InfoContext(ctx, "engine: position closed",
		slog.String("mint", rec.Mint),
		slog.String("symbol", rec.Symbol),
		slog.String("reason", string(rec.Reason)),
		slog.Float64("exit_price", rec.ExitPrice),
		slog.Float64("profit", rec.Profit),
		slog.Float64("profit_percent", rec.ProfitPercent),
	)

	m.mu.Lock()
	autoExec := m.limits.AutoExecute
	m.mu.Unlock()

	// The retry-recovered path has already sold on the venue; issuing
	// another sell would double-exit.
	if autoExec && !rec.Simulated && rec.Reason != domain.CloseReasonRetryRecovered {
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			sellCtx := context.WithoutCancel(ctx)
			res, err := m.executor.Sell(sellCtx, m.account, rec.Mint, 0)
			if err != nil || !res.Success {
				m.logger.WarnContext(sellCtx, "engine: sell order failed, queueing retry",
					slog.String("mint", rec.Mint),
					slog.String("message", execMessage(res, err)),
				)
				m.retry.Enqueue(rec)
				m.publish(sellCtx, "sell_failed", map[string]any{
					"mint":    rec.Mint,
					"symbol":  rec.Symbol,
					"message": execMessage(res, err),
				})
				return
			}
			m.logger.InfoContext(sellCtx, "engine: sell order executed",
				slog.String("mint", rec.Mint),
				slog.String("tx", res.TxID),
			)
		}()
	}

	m.persist(ctx, snap)
	m.publish(ctx, "position_closed", map[string]any{
		"mint":           rec.Mint,
		"symbol":         rec.Symbol,
		"reason":         string(rec.Reason),
		"exit_price":     rec.ExitPrice,
		"net_return":     rec.NetReturn,
		"profit":         rec.Profit,
		"profit_percent": rec.ProfitPercent,
	})
	m.notify(ctx, "position_closed", "Position closed",
		fmt.Sprintf("%s %s @ %.10f (%+.2f%%)", rec.Symbol, rec.Reason, rec.ExitPrice, rec.ProfitPercent))
}

// CloseAll closes every open position with reason bulk_manual at the latest
// known price, falling back to the entry price when no quote is available.
func (m *Manager) CloseAll(ctx context.Context) []domain.TradeRecord {
	var closed []domain.TradeRecord
	for _, mint := range m.book.Keys() {
		m.mu.Lock()
		pos, ok := m.book.Get(mint)
		m.mu.Unlock()
		if !ok {
			continue
		}

		exitPrice := pos.EntryPrice
		if info, err := m.oracle.Lookup(ctx, mint); err == nil {
			if price, usable := info.Resolve(); usable {
				exitPrice = price
			}
		}
		if rec := m.Close(ctx, mint, domain.CloseReasonBulkManual, exitPrice); rec != nil {
			closed = append(closed, *rec)
		}
	}
	return closed
}

// ClosePartial sells the given fraction of the position (the "moonbag"
// pattern) and keeps the remainder open as a proportionally smaller position
// with the same entry economics.
func (m *Manager) ClosePartial(ctx context.Context, mint string, fraction float64, exitPrice float64) (*domain.TradeRecord, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, fmt.Errorf("engine: close partial %s: fraction %v out of (0, 1)", mint, fraction)
	}

	m.mu.Lock()
	pos, ok := m.book.Get(mint)
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}

	soldQty := pos.Quantity * fraction

	// Record the sold slice as its own manual trade.
	sold := pos
	sold.Quantity = soldQty
	sold.Investment = pos.Investment * fraction
	m.book.Put(sold)
	rec, _ := m.closeLocked(mint, domain.CloseReasonManual, exitPrice)

	// Re-open the remainder with scaled economics; closeLocked removed the
	// original entry.
	remainder := pos
	remainder.Quantity = pos.Quantity - soldQty
	remainder.Investment = pos.Investment * (1 - fraction)
	m.book.Put(remainder)
	m.recomputeStatsLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if rec == nil {
		return nil, domain.ErrNotFound
	}

	m.logger.InfoContext(ctx, "engine: partial close",
		slog.String("mint", mint),
		slog.Float64("fraction", fraction),
		slog.Float64("sold_quantity", soldQty),
		slog.Float64("remaining_quantity", remainder.Quantity),
	)

	if m.limitsSnapshot().AutoExecute && !pos.Simulated {
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			sellCtx := context.WithoutCancel(ctx)
			res, err := m.executor.Sell(sellCtx, m.account, mint, soldQty)
			if err != nil || !res.Success {
				m.logger.WarnContext(sellCtx, "engine: partial sell failed, queueing retry",
					slog.String("mint", mint),
					slog.String("message", execMessage(res, err)),
				)
				m.retry.Enqueue(*rec)
			}
		}()
	}

	m.persist(ctx, snap)
	return rec, nil
}

// ---------------------------------------------------------------------------
// Manual overrides
// ---------------------------------------------------------------------------

// SetStops re-derives the take-profit and stop-loss levels of an open
// position from new fractions.
func (m *Manager) SetStops(ctx context.Context, mint string, tpFrac, slFrac float64) (*domain.Position, error) {
	m.mu.Lock()
	pos, ok := m.book.Get(mint)
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	pos.SetStops(tpFrac, slFrac)
	m.book.Put(pos)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.logger.InfoContext(ctx, "engine: stops updated",
		slog.String("mint", mint),
		slog.Float64("take_profit", pos.TakeProfit),
		slog.Float64("stop_loss", pos.StopLoss),
	)
	return &pos, nil
}

// SetTarget sets a custom exit target for an open position as a multiple of
// its entry price. The target takes precedence over take-profit.
func (m *Manager) SetTarget(ctx context.Context, mint string, multiple float64) (*domain.Position, error) {
	if multiple <= 0 {
		return nil, fmt.Errorf("engine: set target %s: multiple %v must be > 0", mint, multiple)
	}
	m.mu.Lock()
	pos, ok := m.book.Get(mint)
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	pos.SetTargetMultiple(multiple)
	m.book.Put(pos)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.logger.InfoContext(ctx, "engine: custom target set",
		slog.String("mint", mint),
		slog.Float64("target_price", *pos.TargetPrice),
	)
	return &pos, nil
}

// Track adds a mint to the tracked set.
func (m *Manager) Track(ctx context.Context, mint string) {
	m.mu.Lock()
	m.tracked[mint] = struct{}{}
	m.limits.TrackedMints = trackedList(m.tracked)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.persist(ctx, snap)
}

// Untrack removes a mint from the tracked set. Any open position stays open.
func (m *Manager) Untrack(ctx context.Context, mint string) {
	m.mu.Lock()
	delete(m.tracked, mint)
	m.limits.TrackedMints = trackedList(m.tracked)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.persist(ctx, snap)
}

func trackedList(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for mint := range set {
		out = append(out, mint)
	}
	return out
}

// SetLimits replaces the trading limits. Ticks running concurrently see
// either the old or the new value, never a mix.
func (m *Manager) SetLimits(limits domain.TradingLimits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = limits
	m.tracked = trackedSet(limits.TrackedMints)
}

func (m *Manager) limitsSnapshot() domain.TradingLimits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limits
}

// ---------------------------------------------------------------------------
// Retry queue pass-throughs
// ---------------------------------------------------------------------------

// EnqueueFailedSale adds (or bumps) a retry-queue entry for a closed trade
// whose venue sell failed.
func (m *Manager) EnqueueFailedSale(rec domain.TradeRecord) {
	m.retry.Enqueue(rec)
}

// DrainRetryQueue replays due failed sales against the venue. A recovered
// sale whose position is somehow still open is closed with reason
// retry_recovered at the stored exit price.
func (m *Manager) DrainRetryQueue(ctx context.Context) {
	m.retry.Drain(ctx, m)
}

// CloseRecovered implements RecoveredCloser for the retry queue.
func (m *Manager) CloseRecovered(ctx context.Context, mint string, exitPrice float64) {
	m.mu.Lock()
	_, open := m.book.Get(mint)
	m.mu.Unlock()
	if !open {
		return
	}
	m.Close(ctx, mint, domain.CloseReasonRetryRecovered, exitPrice)
}

// ---------------------------------------------------------------------------
// Snapshots, events, accessors
// ---------------------------------------------------------------------------

// snapshotLocked builds a consistent snapshot. Caller holds m.mu.
func (m *Manager) snapshotLocked() domain.Snapshot {
	limits := m.limits
	limits.TrackedMints = trackedList(m.tracked)
	return domain.Snapshot{
		Limits:      limits,
		History:     append([]domain.TradeRecord(nil), m.history...),
		Open:        m.book.Entries(),
		FailedSales: m.retry.Entries(),
		TakenAt:     m.now().UTC(),
	}
}

// persist writes a snapshot. Persistence failures are logged and swallowed:
// in-memory state remains authoritative and the process continues.
func (m *Manager) persist(ctx context.Context, snap domain.Snapshot) {
	if m.snaps == nil {
		return
	}
	if err := m.snaps.Save(ctx, snap); err != nil {
		m.logger.WarnContext(ctx, "engine: snapshot save failed",
			slog.String("error", err.Error()),
		)
	}
}

// Restore loads the last snapshot and rebuilds the book, history, retry
// queue, and tracked set. The tracked-mint list is deduplicated on reload.
func (m *Manager) Restore(ctx context.Context) error {
	if m.snaps == nil {
		return nil
	}
	snap, err := m.snaps.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("engine: restore snapshot: %w", err)
	}

	m.mu.Lock()
	if snap.Limits.MaxPositions > 0 {
		m.limits = snap.Limits
	}
	m.tracked = trackedSet(snap.Limits.TrackedMints)
	m.limits.TrackedMints = trackedList(m.tracked)
	m.history = append([]domain.TradeRecord(nil), snap.History...)
	m.book.Replace(snap.Open)
	m.retry.Restore(snap.FailedSales)
	m.recomputeStatsLocked()
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "engine: state restored",
		slog.Int("open_positions", m.book.Len()),
		slog.Int("history", len(snap.History)),
		slog.Int("failed_sales", len(snap.FailedSales)),
	)
	return nil
}

// publish emits a lifecycle event on the signal bus. Publish failures are
// logged and never propagate.
func (m *Manager) publish(ctx context.Context, event string, fields map[string]any) {
	if m.bus == nil {
		return
	}
	fields["event"] = event
	payload, _ := json.Marshal(fields)
	if err := m.bus.Publish(ctx, "positions", payload); err != nil {
		m.logger.WarnContext(ctx, "engine: publish event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (m *Manager) notify(ctx context.Context, event, title, message string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, event, title, message); err != nil {
		m.logger.WarnContext(ctx, "engine: notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// Position returns the open position for mint, if any.
func (m *Manager) Position(mint string) (domain.Position, bool) {
	return m.book.Get(mint)
}

// OpenPositions returns a copy of all open positions.
func (m *Manager) OpenPositions() []domain.Position {
	return m.book.List()
}

// History returns a copy of the closed-trade history in close order.
func (m *Manager) History() []domain.TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TradeRecord(nil), m.history...)
}

// RetryBacklog returns a copy of the pending failed sales.
func (m *Manager) RetryBacklog() []domain.FailedSale {
	return m.retry.Entries()
}

// Quiesce blocks until all in-flight asynchronous venue calls have settled.
func (m *Manager) Quiesce() {
	m.pending.Wait()
}

func execMessage(res domain.ExecResult, err error) string {
	if err != nil {
		return err.Error()
	}
	return res.Message
}
