package domain

import "testing"

func TestComputeStats(t *testing.T) {
	history := []TradeRecord{
		{Investment: 1.0, NetReturn: 1.5, Profit: 0.5},
		{Investment: 1.0, NetReturn: 0.25, Profit: -0.75},
		{Investment: 2.0, NetReturn: 2.0, Profit: 0}, // break-even counts as loss
	}
	open := []Position{
		{Mint: "a", Investment: 0.5},
		{Mint: "b", Investment: 0.25},
	}

	s := ComputeStats(history, open)

	if s.TotalInvested != 4.0 {
		t.Errorf("TotalInvested = %v, want 4.0", s.TotalInvested)
	}
	if s.TotalReturned != 3.75 {
		t.Errorf("TotalReturned = %v, want 3.75", s.TotalReturned)
	}
	if s.TotalProfit != -0.25 {
		t.Errorf("TotalProfit = %v, want -0.25", s.TotalProfit)
	}
	if s.Wins != 1 || s.Losses != 2 {
		t.Errorf("Wins/Losses = %d/%d, want 1/2", s.Wins, s.Losses)
	}
	if s.ActiveInvested != 0.75 {
		t.Errorf("ActiveInvested = %v, want 0.75", s.ActiveInvested)
	}
}

func TestComputeStatsOrderIndependent(t *testing.T) {
	history := []TradeRecord{
		{Investment: 1, NetReturn: 2, Profit: 1},
		{Investment: 3, NetReturn: 1, Profit: -2},
	}
	reversed := []TradeRecord{history[1], history[0]}

	if ComputeStats(history, nil) != ComputeStats(reversed, nil) {
		t.Error("stats differ depending on history ordering")
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	if s := ComputeStats(nil, nil); s != (ProfitStats{}) {
		t.Errorf("ComputeStats(nil, nil) = %+v, want zero value", s)
	}
}
