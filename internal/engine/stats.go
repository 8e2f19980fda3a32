package engine

import (
	"fmt"

	"github.com/ckartal/snipebot/internal/domain"
)

// recomputeStatsLocked refreshes the cached aggregate from the two sources
// of truth. Caller holds m.mu. The cached value is a convenience only; it is
// thrown away and rebuilt on every mutation and never feeds back into the
// computation.
func (m *Manager) recomputeStatsLocked() {
	m.stats = domain.ComputeStats(m.history, m.book.List())
}

// RecomputeStats folds over the full trade history and the open set and
// returns the resulting aggregate. It is a pure function of those two inputs
// and can be called at any time, including right after a restore.
func (m *Manager) RecomputeStats() domain.ProfitStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputeStatsLocked()
	return m.stats
}

// Stats returns the aggregate as of the last mutation.
func (m *Manager) Stats() domain.ProfitStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// FormatStats renders a short human-readable performance summary, used by
// notifications and the command surface.
func FormatStats(s domain.ProfitStats) string {
	total := s.Wins + s.Losses
	winRate := 0.0
	if total > 0 {
		winRate = float64(s.Wins) / float64(total) * 100
	}
	return fmt.Sprintf(
		"trades=%d wins=%d losses=%d win_rate=%.1f%% invested=%.4f returned=%.4f profit=%+.4f active=%.4f",
		total, s.Wins, s.Losses, winRate,
		s.TotalInvested, s.TotalReturned, s.TotalProfit, s.ActiveInvested,
	)
}
