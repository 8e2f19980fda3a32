package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ckartal/snipebot/internal/domain"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeOracle struct {
	mu     sync.Mutex
	quotes map[string]domain.PriceInfo
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{quotes: make(map[string]domain.PriceInfo)}
}

func (o *fakeOracle) set(mint string, price float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := price
	o.quotes[mint] = domain.PriceInfo{CurrentPrice: &p}
}

func (o *fakeOracle) clear(mint string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.quotes, mint)
}

func (o *fakeOracle) Lookup(ctx context.Context, mint string) (domain.PriceInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	info, ok := o.quotes[mint]
	if !ok {
		return domain.PriceInfo{}, domain.ErrNotFound
	}
	return info, nil
}

type orderCall struct {
	account string
	mint    string
	amount  float64
}

type fakeExecutor struct {
	mu    sync.Mutex
	buys  []orderCall
	sells []orderCall

	buyResult  domain.ExecResult
	buyErr     error
	sellResult domain.ExecResult
	sellErr    error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		buyResult:  domain.ExecResult{Success: true, TxID: "buy-tx"},
		sellResult: domain.ExecResult{Success: true, TxID: "sell-tx"},
	}
}

func (e *fakeExecutor) Buy(ctx context.Context, account, mint string, amount float64) (domain.ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buys = append(e.buys, orderCall{account, mint, amount})
	return e.buyResult, e.buyErr
}

func (e *fakeExecutor) Sell(ctx context.Context, account, mint string, amount float64) (domain.ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sells = append(e.sells, orderCall{account, mint, amount})
	return e.sellResult, e.sellErr
}

func (e *fakeExecutor) sellCalls() []orderCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]orderCall(nil), e.sells...)
}

func (e *fakeExecutor) buyCalls() []orderCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]orderCall(nil), e.buys...)
}

type fakeSnapshotter struct {
	mu    sync.Mutex
	last  *domain.Snapshot
	saves int
}

func (s *fakeSnapshotter) Save(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &snap
	s.saves++
	return nil
}

func (s *fakeSnapshotter) Load(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return *s.last, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLimits() domain.TradingLimits {
	return domain.TradingLimits{
		DefaultInvestment: 1.0,
		TakeProfitFrac:    0.5,
		StopLossFrac:      0.3,
		FeesPercent:       1.0,
		SlippagePercent:   1.0,
		MaxPositions:      2,
		TrackAll:          true,
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeOracle, *fakeExecutor) {
	t.Helper()
	oracle := newFakeOracle()
	executor := newFakeExecutor()
	m := NewManager(oracle, executor, nil, nil, testLimits(), "acct", false, testLogger())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.retry.now = m.now
	m.retry.pause = 0
	return m, oracle, executor
}

func openTestPosition(t *testing.T, m *Manager, mint string, entryPrice float64) domain.Position {
	t.Helper()
	pos, ok := m.OpenPosition(context.Background(), mint, domain.Alert{
		Mint:   mint,
		Symbol: "TKN",
		Type:   "volume_spike",
		Size:   100,
	}, domain.PriceInfo{CurrentPrice: &entryPrice})
	if !ok {
		t.Fatalf("OpenPosition(%s) rejected", mint)
	}
	return *pos
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ---------------------------------------------------------------------------
// Entry gating
// ---------------------------------------------------------------------------

func TestOpenPositionCreatesPosition(t *testing.T) {
	m, _, _ := newTestManager(t)

	pos := openTestPosition(t, m, "mint1", 0.5)

	if !almost(pos.Quantity, 2.0) {
		t.Errorf("Quantity = %v, want 2.0", pos.Quantity)
	}
	if !almost(pos.TakeProfit, 0.75) {
		t.Errorf("TakeProfit = %v, want 0.75", pos.TakeProfit)
	}
	if !almost(pos.StopLoss, 0.35) {
		t.Errorf("StopLoss = %v, want 0.35", pos.StopLoss)
	}
	if pos.HighestPrice != pos.EntryPrice {
		t.Errorf("HighestPrice = %v, want entry %v", pos.HighestPrice, pos.EntryPrice)
	}
	if _, ok := m.Position("mint1"); !ok {
		t.Error("position not stored in the book")
	}
}

func TestOpenPositionRejectsDuplicate(t *testing.T) {
	m, _, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)

	price := 1.2
	if _, ok := m.OpenPosition(context.Background(), "mint1", domain.Alert{Mint: "mint1", Size: 100},
		domain.PriceInfo{CurrentPrice: &price}); ok {
		t.Fatal("duplicate open accepted")
	}

	pos, _ := m.Position("mint1")
	if pos.EntryPrice != 1.0 {
		t.Errorf("existing position mutated by rejected open: entry = %v", pos.EntryPrice)
	}
}

func TestOpenPositionRejectsMaxPositions(t *testing.T) {
	m, _, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	openTestPosition(t, m, "mint2", 1.0)

	price := 1.0
	if _, ok := m.OpenPosition(context.Background(), "mint3", domain.Alert{Mint: "mint3", Size: 100},
		domain.PriceInfo{CurrentPrice: &price}); ok {
		t.Fatal("open accepted beyond the position cap")
	}
}

func TestOpenPositionRejectsSmallAlert(t *testing.T) {
	m, _, _ := newTestManager(t)
	limits := testLimits()
	limits.MinAlertSize = 50
	m.SetLimits(limits)

	price := 1.0
	if _, ok := m.OpenPosition(context.Background(), "mint1", domain.Alert{Mint: "mint1", Size: 49},
		domain.PriceInfo{CurrentPrice: &price}); ok {
		t.Fatal("undersized alert accepted")
	}
	if _, ok := m.OpenPosition(context.Background(), "mint1", domain.Alert{Mint: "mint1", Size: 50},
		domain.PriceInfo{CurrentPrice: &price}); !ok {
		t.Fatal("alert at exact minimum rejected")
	}
}

func TestOpenPositionRejectsUntrackedMint(t *testing.T) {
	m, _, _ := newTestManager(t)
	limits := testLimits()
	limits.TrackAll = false
	limits.TrackedMints = []string{"allowed"}
	m.SetLimits(limits)

	price := 1.0
	if _, ok := m.OpenPosition(context.Background(), "other", domain.Alert{Mint: "other", Size: 100},
		domain.PriceInfo{CurrentPrice: &price}); ok {
		t.Fatal("untracked mint accepted")
	}
	if _, ok := m.OpenPosition(context.Background(), "allowed", domain.Alert{Mint: "allowed", Size: 100},
		domain.PriceInfo{CurrentPrice: &price}); !ok {
		t.Fatal("tracked mint rejected")
	}
}

func TestOpenPositionRejectsUnusablePrice(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, ok := m.OpenPosition(context.Background(), "mint1", domain.Alert{Mint: "mint1", Size: 100},
		domain.PriceInfo{}); ok {
		t.Fatal("open accepted without any price")
	}
	bad := math.NaN()
	if _, ok := m.OpenPosition(context.Background(), "mint1", domain.Alert{Mint: "mint1", Size: 100},
		domain.PriceInfo{CurrentPrice: &bad}); ok {
		t.Fatal("open accepted with NaN price")
	}
}

func TestOpenPositionBuyFailureKeepsPosition(t *testing.T) {
	m, _, executor := newTestManager(t)
	limits := testLimits()
	limits.AutoExecute = true
	m.SetLimits(limits)
	executor.buyErr = errors.New("relay unavailable")

	openTestPosition(t, m, "mint1", 1.0)
	m.Quiesce()

	if len(executor.buyCalls()) != 1 {
		t.Fatalf("buy calls = %d, want 1", len(executor.buyCalls()))
	}
	if _, ok := m.Position("mint1"); !ok {
		t.Error("position dropped after failed buy")
	}
	// Failed buys are never queued for retry; the queue is sells only.
	if n := len(m.RetryBacklog()); n != 0 {
		t.Errorf("retry backlog = %d after failed buy, want 0", n)
	}
}

// ---------------------------------------------------------------------------
// Exit evaluation
// ---------------------------------------------------------------------------

func TestEvaluateTakeProfit(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	oracle.set("mint1", 1.6)

	pos, err := m.Evaluate(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pos != nil {
		t.Fatal("position still open after take-profit hit")
	}

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("history = %d records, want 1", len(history))
	}
	rec := history[0]
	if rec.Reason != domain.CloseReasonTakeProfit {
		t.Errorf("Reason = %s, want take_profit", rec.Reason)
	}
	// qty 1.0 at 1.6 with 1% fees and 1% slippage.
	if !almost(rec.GrossReturn, 1.6) {
		t.Errorf("GrossReturn = %v, want 1.6", rec.GrossReturn)
	}
	if !almost(rec.Fees, 0.016) || !almost(rec.Slippage, 0.016) {
		t.Errorf("Fees/Slippage = %v/%v, want 0.016/0.016", rec.Fees, rec.Slippage)
	}
	if !almost(rec.NetReturn, 1.568) {
		t.Errorf("NetReturn = %v, want 1.568", rec.NetReturn)
	}
	if !almost(rec.Profit, 0.568) {
		t.Errorf("Profit = %v, want 0.568", rec.Profit)
	}
	if !almost(rec.ProfitPercent, 56.8) {
		t.Errorf("ProfitPercent = %v, want 56.8", rec.ProfitPercent)
	}
	if !rec.Won() {
		t.Error("profitable exit not counted as a win")
	}
}

func TestEvaluateStopLoss(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	oracle.set("mint1", 0.6)

	if pos, _ := m.Evaluate(context.Background(), "mint1"); pos != nil {
		t.Fatal("position still open after stop-loss hit")
	}

	history := m.History()
	if len(history) != 1 || history[0].Reason != domain.CloseReasonStopLoss {
		t.Fatalf("history = %+v, want one stop_loss record", history)
	}
	if history[0].Won() {
		t.Error("stop-loss exit counted as a win")
	}
}

func TestEvaluateCustomTargetPriority(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	if _, err := m.SetTarget(context.Background(), "mint1", 2.0); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}

	// 2.5 satisfies both the custom target (2.0) and take-profit (1.5);
	// the custom target must win.
	oracle.set("mint1", 2.5)
	m.Evaluate(context.Background(), "mint1")

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("history = %d records, want 1", len(history))
	}
	if history[0].Reason != domain.CloseReasonCustomTarget {
		t.Errorf("Reason = %s, want custom_target", history[0].Reason)
	}
}

func TestEvaluateTakeProfitStillFiresBelowTarget(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	if _, err := m.SetTarget(context.Background(), "mint1", 3.0); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}

	// The custom target only outranks take-profit when both are hit; below
	// the target the regular take-profit exit still applies.
	oracle.set("mint1", 1.6)
	m.Evaluate(context.Background(), "mint1")

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("history = %d records, want 1", len(history))
	}
	if history[0].Reason != domain.CloseReasonTakeProfit {
		t.Errorf("Reason = %s, want take_profit", history[0].Reason)
	}
}

func TestEvaluateMissingPriceIsNoOp(t *testing.T) {
	m, _, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)

	checked := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return checked }

	pos, err := m.Evaluate(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pos == nil {
		t.Fatal("position closed on a missing price")
	}
	if !pos.LastCheckedAt.Equal(checked) {
		t.Errorf("LastCheckedAt = %v, want %v", pos.LastCheckedAt, checked)
	}
	if len(m.History()) != 0 {
		t.Error("history written on a missing price")
	}
}

func TestEvaluateAbsentMintIsNoOp(t *testing.T) {
	m, _, _ := newTestManager(t)

	pos, err := m.Evaluate(context.Background(), "ghost")
	if err != nil || pos != nil {
		t.Fatalf("Evaluate(absent) = (%v, %v), want (nil, nil)", pos, err)
	}
}

func TestEvaluateHighestPriceMonotonic(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	// Widen the exits so price swings stay inside them.
	if _, err := m.SetStops(context.Background(), "mint1", 10.0, 0.99); err != nil {
		t.Fatalf("SetStops: %v", err)
	}

	oracle.set("mint1", 2.0)
	m.Evaluate(context.Background(), "mint1")
	oracle.set("mint1", 1.2)
	pos, _ := m.Evaluate(context.Background(), "mint1")

	if pos == nil {
		t.Fatal("position unexpectedly closed")
	}
	if pos.HighestPrice != 2.0 {
		t.Errorf("HighestPrice = %v, want 2.0 to survive the dip", pos.HighestPrice)
	}
}

func TestEvaluateAllContinuesPastClosed(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)
	openTestPosition(t, m, "mint2", 1.0)
	oracle.set("mint1", 1.6)
	oracle.set("mint2", 0.6)

	m.EvaluateAll(context.Background())

	if len(m.OpenPositions()) != 0 {
		t.Errorf("open positions = %d after batch, want 0", len(m.OpenPositions()))
	}
	if len(m.History()) != 2 {
		t.Errorf("history = %d, want 2", len(m.History()))
	}
}

// ---------------------------------------------------------------------------
// Close accounting
// ---------------------------------------------------------------------------

func TestCloseIsIdempotent(t *testing.T) {
	m, _, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)

	if rec := m.Close(context.Background(), "mint1", domain.CloseReasonManual, 1.1); rec == nil {
		t.Fatal("first close returned nil")
	}
	if rec := m.Close(context.Background(), "mint1", domain.CloseReasonManual, 1.1); rec != nil {
		t.Fatal("second close produced a record")
	}
	if len(m.History()) != 1 {
		t.Errorf("history = %d, want exactly 1", len(m.History()))
	}
}

func TestCloseBookkeepingSurvivesSellFailure(t *testing.T) {
	m, _, executor := newTestManager(t)
	limits := testLimits()
	limits.AutoExecute = true
	m.SetLimits(limits)
	executor.sellResult = domain.ExecResult{Success: false, Message: "relay choked"}

	openTestPosition(t, m, "mint1", 1.0)
	m.Quiesce() // let the entry buy settle

	rec := m.Close(context.Background(), "mint1", domain.CloseReasonManual, 1.2)
	if rec == nil {
		t.Fatal("close returned nil")
	}
	m.Quiesce()

	// Optimistic close: the record and removal stand even though the venue
	// sell failed; the retry queue carries the compensation.
	if _, ok := m.Position("mint1"); ok {
		t.Error("position still open after close")
	}
	if len(m.History()) != 1 {
		t.Errorf("history = %d, want 1", len(m.History()))
	}
	backlog := m.RetryBacklog()
	if len(backlog) != 1 {
		t.Fatalf("retry backlog = %d, want 1", len(backlog))
	}
	if backlog[0].Mint != "mint1" || backlog[0].Attempts != 1 {
		t.Errorf("backlog entry = %+v", backlog[0])
	}
	if backlog[0].ExitPrice != 1.2 {
		t.Errorf("backlog ExitPrice = %v, want 1.2", backlog[0].ExitPrice)
	}
}

func TestCloseSimulatedNeverSells(t *testing.T) {
	oracle := newFakeOracle()
	executor := newFakeExecutor()
	limits := testLimits()
	limits.AutoExecute = true
	m := NewManager(oracle, executor, nil, nil, limits, "acct", true, testLogger())
	m.retry.pause = 0

	pos := openTestPosition(t, m, "mint1", 1.0)
	if !pos.Simulated {
		t.Error("position not marked simulated")
	}
	m.Close(context.Background(), "mint1", domain.CloseReasonManual, 1.5)
	m.Quiesce()

	if n := len(executor.buyCalls()) + len(executor.sellCalls()); n != 0 {
		t.Errorf("venue calls = %d in simulated mode, want 0", n)
	}
}

func TestCloseAllUsesFallbackPrice(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "quoted", 1.0)
	openTestPosition(t, m, "unquoted", 2.0)
	oracle.set("quoted", 1.3)

	closed := m.CloseAll(context.Background())
	if len(closed) != 2 {
		t.Fatalf("closed = %d, want 2", len(closed))
	}

	byMint := map[string]domain.TradeRecord{}
	for _, rec := range closed {
		byMint[rec.Mint] = rec
		if rec.Reason != domain.CloseReasonBulkManual {
			t.Errorf("Reason = %s, want bulk_manual", rec.Reason)
		}
	}
	if byMint["quoted"].ExitPrice != 1.3 {
		t.Errorf("quoted exit = %v, want 1.3", byMint["quoted"].ExitPrice)
	}
	if byMint["unquoted"].ExitPrice != 2.0 {
		t.Errorf("unquoted exit = %v, want entry price 2.0", byMint["unquoted"].ExitPrice)
	}
}

func TestClosePartialKeepsMoonbag(t *testing.T) {
	m, _, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 0.5) // qty 2.0

	rec, err := m.ClosePartial(context.Background(), "mint1", 0.75, 1.0)
	if err != nil {
		t.Fatalf("ClosePartial: %v", err)
	}
	if !almost(rec.Quantity, 1.5) {
		t.Errorf("sold quantity = %v, want 1.5", rec.Quantity)
	}
	if !almost(rec.Investment, 0.75) {
		t.Errorf("sold investment = %v, want 0.75", rec.Investment)
	}
	if rec.Reason != domain.CloseReasonManual {
		t.Errorf("Reason = %s, want manual", rec.Reason)
	}

	remainder, ok := m.Position("mint1")
	if !ok {
		t.Fatal("moonbag remainder missing")
	}
	if !almost(remainder.Quantity, 0.5) {
		t.Errorf("remainder quantity = %v, want 0.5", remainder.Quantity)
	}
	if !almost(remainder.Investment, 0.25) {
		t.Errorf("remainder investment = %v, want 0.25", remainder.Investment)
	}
	if remainder.EntryPrice != 0.5 {
		t.Errorf("remainder entry = %v, want original 0.5", remainder.EntryPrice)
	}
}

func TestClosePartialRejectsBadFraction(t *testing.T) {
	m, _, _ := newTestManager(t)
	openTestPosition(t, m, "mint1", 1.0)

	for _, fraction := range []float64{0, 1, -0.5, 1.5} {
		if _, err := m.ClosePartial(context.Background(), "mint1", fraction, 1.0); err == nil {
			t.Errorf("fraction %v accepted", fraction)
		}
	}
}

// ---------------------------------------------------------------------------
// Retry integration, stats, restore
// ---------------------------------------------------------------------------

func TestDrainRecoversFailedSale(t *testing.T) {
	m, _, executor := newTestManager(t)
	limits := testLimits()
	limits.AutoExecute = true
	m.SetLimits(limits)
	executor.sellResult = domain.ExecResult{Success: false, Message: "relay choked"}

	openTestPosition(t, m, "mint1", 1.0)
	m.Quiesce()
	m.Close(context.Background(), "mint1", domain.CloseReasonManual, 1.2)
	m.Quiesce()

	if len(m.RetryBacklog()) != 1 {
		t.Fatalf("backlog = %d, want 1", len(m.RetryBacklog()))
	}

	// Heal the venue and move past the backoff window.
	executor.mu.Lock()
	executor.sellResult = domain.ExecResult{Success: true, TxID: "recovered"}
	executor.mu.Unlock()
	m.retry.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	}

	m.DrainRetryQueue(context.Background())
	m.Quiesce()

	if n := len(m.RetryBacklog()); n != 0 {
		t.Errorf("backlog = %d after recovery, want 0", n)
	}
	// The position was already removed by the optimistic close, so the
	// recovery does not write a second record.
	if len(m.History()) != 1 {
		t.Errorf("history = %d, want 1", len(m.History()))
	}
}

func TestStatsFoldAcrossLifecycle(t *testing.T) {
	m, oracle, _ := newTestManager(t)
	openTestPosition(t, m, "win", 1.0)
	openTestPosition(t, m, "loss", 1.0)
	oracle.set("win", 1.6)
	oracle.set("loss", 0.5)
	m.EvaluateAll(context.Background())
	openTestPosition(t, m, "open", 1.0)

	s := m.Stats()
	if s.Wins != 1 || s.Losses != 1 {
		t.Errorf("Wins/Losses = %d/%d, want 1/1", s.Wins, s.Losses)
	}
	if !almost(s.TotalInvested, 2.0) {
		t.Errorf("TotalInvested = %v, want 2.0", s.TotalInvested)
	}
	if !almost(s.ActiveInvested, 1.0) {
		t.Errorf("ActiveInvested = %v, want 1.0", s.ActiveInvested)
	}
	if recomputed := m.RecomputeStats(); recomputed != s {
		t.Errorf("recomputed stats %+v differ from cached %+v", recomputed, s)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	snaps := &fakeSnapshotter{}
	oracle := newFakeOracle()
	executor := newFakeExecutor()
	limits := testLimits()
	limits.AutoExecute = true
	limits.TrackAll = false
	limits.TrackedMints = []string{"mint1", "mint1", "mint2"} // duplicate on the wire

	m := NewManager(oracle, executor, snaps, nil, limits, "acct", false, testLogger())
	m.retry.pause = 0
	executor.sellResult = domain.ExecResult{Success: false, Message: "relay choked"}

	openTestPosition(t, m, "mint1", 1.0)
	openTestPosition(t, m, "mint2", 2.0)
	m.Quiesce()
	m.Close(context.Background(), "mint2", domain.CloseReasonManual, 2.5)
	m.Quiesce()
	m.Track(context.Background(), "mint3") // forces one more snapshot with the backlog

	fresh := NewManager(oracle, executor, snaps, nil, testLimits(), "acct", false, testLogger())
	if err := fresh.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(fresh.OpenPositions()) != 1 {
		t.Errorf("open = %d after restore, want 1", len(fresh.OpenPositions()))
	}
	if _, ok := fresh.Position("mint1"); !ok {
		t.Error("mint1 missing after restore")
	}
	if len(fresh.History()) != 1 {
		t.Errorf("history = %d after restore, want 1", len(fresh.History()))
	}
	if len(fresh.RetryBacklog()) != 1 {
		t.Errorf("backlog = %d after restore, want 1", len(fresh.RetryBacklog()))
	}

	s := fresh.Stats()
	if s.Wins+s.Losses != 1 {
		t.Errorf("restored stats count %d closed trades, want 1", s.Wins+s.Losses)
	}
}

func TestRestoreWithoutSnapshotIsNoOp(t *testing.T) {
	m := NewManager(newFakeOracle(), newFakeExecutor(), &fakeSnapshotter{}, nil,
		testLimits(), "acct", false, testLogger())
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore on empty store: %v", err)
	}
	if len(m.OpenPositions()) != 0 {
		t.Error("positions materialized from an empty store")
	}
}
