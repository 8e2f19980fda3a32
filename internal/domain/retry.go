package domain

import "time"

// FailedSaleMaxAttempts is the per-entry execution cap in the retry queue.
// Entries that reach it are excluded from further execution but remain
// subject to age-based pruning.
const FailedSaleMaxAttempts = 5

// FailedSale is a pending compensating exit for a sell order the venue
// rejected. Attempts only ever increases.
type FailedSale struct {
	Mint          string    `json:"mint"`
	Symbol        string    `json:"symbol"`
	AddedAt       time.Time `json:"added_at"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	Attempts      int       `json:"attempts"`
	MaxAttempts   int       `json:"max_attempts"`
	// ExitPrice is the bookkeeping exit price snapshotted at close time,
	// reused if the recovered sale finds the position still open.
	ExitPrice  float64 `json:"exit_price"`
	EntryPrice float64 `json:"entry_price"`
	Investment float64 `json:"investment"`
	Quantity   float64 `json:"quantity"`
}

// Exhausted reports whether the entry has used up its execution attempts.
func (f FailedSale) Exhausted() bool {
	return f.Attempts >= f.MaxAttempts
}
