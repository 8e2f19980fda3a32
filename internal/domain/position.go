package domain

import "time"

// CloseReason records which exit path ended a position.
type CloseReason string

const (
	CloseReasonTakeProfit     CloseReason = "take_profit"
	CloseReasonStopLoss       CloseReason = "stop_loss"
	CloseReasonCustomTarget   CloseReason = "custom_target"
	CloseReasonManual         CloseReason = "manual"
	CloseReasonBulkManual     CloseReason = "bulk_manual"
	CloseReasonRetryRecovered CloseReason = "retry_recovered"
)

// Position is an open speculative holding opened in response to an alert.
// At most one open Position exists per token mint.
type Position struct {
	Mint           string    `json:"mint"`
	Symbol         string    `json:"symbol"`
	EntryTime      time.Time `json:"entry_time"`
	EntryPrice     float64   `json:"entry_price"`
	Investment     float64   `json:"investment"`
	Quantity       float64   `json:"quantity"`
	TakeProfitFrac float64   `json:"take_profit_frac"`
	StopLossFrac   float64   `json:"stop_loss_frac"`
	TakeProfit     float64   `json:"take_profit"`
	StopLoss       float64   `json:"stop_loss"`
	// HighestPrice only ever moves up over the life of the position.
	HighestPrice float64 `json:"highest_price"`
	// TargetPrice, when set, outranks TakeProfit when both are satisfied.
	TargetPrice    *float64  `json:"target_price,omitempty"`
	TargetMultiple float64   `json:"target_multiple,omitempty"`
	AlertType      string    `json:"alert_type"`
	Simulated      bool      `json:"simulated"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
}

// NewPosition derives the dependent fields of a position from its entry
// economics: quantity from investment and entry price, and the take-profit /
// stop-loss levels from the configured fractions.
func NewPosition(mint, symbol string, entryPrice, investment, tpFrac, slFrac float64, alertType string, now time.Time) Position {
	qty := 0.0
	if entryPrice > 0 {
		qty = investment / entryPrice
	}
	return Position{
		Mint:           mint,
		Symbol:         symbol,
		EntryTime:      now,
		EntryPrice:     entryPrice,
		Investment:     investment,
		Quantity:       qty,
		TakeProfitFrac: tpFrac,
		StopLossFrac:   slFrac,
		TakeProfit:     entryPrice * (1 + tpFrac),
		StopLoss:       entryPrice * (1 - slFrac),
		HighestPrice:   entryPrice,
		AlertType:      alertType,
	}
}

// ObservePrice raises the position's highest observed price when the given
// price exceeds it.
func (p *Position) ObservePrice(price float64) {
	if price > p.HighestPrice {
		p.HighestPrice = price
	}
}

// SetStops re-derives the take-profit and stop-loss levels from new fractions.
func (p *Position) SetStops(tpFrac, slFrac float64) {
	p.TakeProfitFrac = tpFrac
	p.StopLossFrac = slFrac
	p.TakeProfit = p.EntryPrice * (1 + tpFrac)
	p.StopLoss = p.EntryPrice * (1 - slFrac)
}

// SetTargetMultiple sets a custom exit target as a multiple of entry price.
func (p *Position) SetTargetMultiple(multiple float64) {
	target := p.EntryPrice * multiple
	p.TargetMultiple = multiple
	p.TargetPrice = &target
}

// TradeRecord is the immutable snapshot written when a position is closed.
type TradeRecord struct {
	ID            string        `json:"id"`
	Mint          string        `json:"mint"`
	Symbol        string        `json:"symbol"`
	AlertType     string        `json:"alert_type"`
	Simulated     bool          `json:"simulated"`
	EntryTime     time.Time     `json:"entry_time"`
	EntryPrice    float64       `json:"entry_price"`
	Investment    float64       `json:"investment"`
	Quantity      float64       `json:"quantity"`
	HighestPrice  float64       `json:"highest_price"`
	ExitPrice     float64       `json:"exit_price"`
	ExitTime      time.Time     `json:"exit_time"`
	Reason        CloseReason   `json:"reason"`
	GrossReturn   float64       `json:"gross_return"`
	Fees          float64       `json:"fees"`
	Slippage      float64       `json:"slippage"`
	NetReturn     float64       `json:"net_return"`
	Profit        float64       `json:"profit"`
	ProfitPercent float64       `json:"profit_percent"`
	Duration      time.Duration `json:"duration"`
}

// Won reports whether the trade returned more than it invested.
func (r TradeRecord) Won() bool {
	return r.NetReturn > r.Investment
}
