package domain

import (
	"context"
	"time"
)

// TradingLimits are the process-wide trading parameters consulted by entry
// gating and close accounting. They are part of the persisted snapshot.
type TradingLimits struct {
	DefaultInvestment float64  `json:"default_investment"`
	TakeProfitFrac    float64  `json:"take_profit_frac"`
	StopLossFrac      float64  `json:"stop_loss_frac"`
	FeesPercent       float64  `json:"fees_percent"`
	SlippagePercent   float64  `json:"slippage_percent"`
	MaxPositions      int      `json:"max_positions"`
	MinAlertSize      float64  `json:"min_alert_size"`
	AutoExecute       bool     `json:"auto_execute"`
	TrackAll          bool     `json:"track_all"`
	TrackedMints      []string `json:"tracked_mints"`
}

// PriceOracle supplies the latest known price for a token mint. Lookup
// returns ErrNotFound when the mint has never been quoted; the returned
// PriceInfo may still resolve to nothing when the stored value is unusable.
type PriceOracle interface {
	Lookup(ctx context.Context, mint string) (PriceInfo, error)
}

// PriceSink receives fresh quotes from the feed layer.
type PriceSink interface {
	SetPrice(ctx context.Context, mint string, info PriceInfo) error
}

// ExecResult is the venue's answer to a buy or sell request. A confirmation
// timeout inside the executor is reported as success and accepted as such.
type ExecResult struct {
	Success bool
	TxID    string
	Message string
}

// TradeExecutor executes real-money orders against the venue. Sell with
// amount 0 liquidates the entire remaining balance. Implementations may
// retry internally; the returned result is authoritative.
type TradeExecutor interface {
	Buy(ctx context.Context, account, mint string, amount float64) (ExecResult, error)
	Sell(ctx context.Context, account, mint string, amount float64) (ExecResult, error)
}

// PositionEntry pairs a mint with its open position for the snapshot wire
// format.
type PositionEntry struct {
	Mint     string   `json:"mint"`
	Position Position `json:"position"`
}

// Snapshot is the durable image of the tracker's state. TrackedMints inside
// Limits travels as a list and is deduplicated on reload.
type Snapshot struct {
	Limits      TradingLimits   `json:"limits"`
	History     []TradeRecord   `json:"history"`
	Open        []PositionEntry `json:"open"`
	FailedSales []FailedSale    `json:"failed_sales"`
	TakenAt     time.Time       `json:"taken_at"`
}

// Snapshotter persists and restores snapshots. Save failures are non-fatal
// to the tracker: in-memory state stays authoritative.
type Snapshotter interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// SignalBus publishes position lifecycle events for external consumers
// (the chat command surface subscribes to these).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
