package domain

// ProfitStats is a derived aggregate over closed-trade history and open
// positions. It is never a source of truth: it must always be recomputable
// by folding over both.
type ProfitStats struct {
	TotalInvested  float64 `json:"total_invested"`
	TotalReturned  float64 `json:"total_returned"`
	TotalProfit    float64 `json:"total_profit"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	ActiveInvested float64 `json:"active_invested"`
}

// ComputeStats folds over the full trade history and the open position set.
// It is a pure function: calling it twice with the same inputs yields the
// same result regardless of slice ordering.
func ComputeStats(history []TradeRecord, open []Position) ProfitStats {
	var s ProfitStats
	for _, rec := range history {
		s.TotalInvested += rec.Investment
		s.TotalReturned += rec.NetReturn
		s.TotalProfit += rec.Profit
		if rec.Won() {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	for _, pos := range open {
		s.ActiveInvested += pos.Investment
	}
	return s
}
