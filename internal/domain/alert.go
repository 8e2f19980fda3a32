package domain

import "math"

// Alert describes an external entry signal for a token mint.
type Alert struct {
	Mint   string
	Symbol string
	Type   string
	// Size is the qualifying size reported by the alert source, used by
	// entry gating against the configured minimum.
	Size float64
}

// PriceInfo is the oracle's view of a token price. CurrentPrice is the
// primary field; Price is a legacy fallback populated by some feed sources.
// Either or both may be absent.
type PriceInfo struct {
	CurrentPrice *float64 `json:"current_price,omitempty"`
	Price        *float64 `json:"price,omitempty"`
}

// Resolve applies the ordered price-resolution policy: prefer CurrentPrice,
// fall back to Price. It reports false when neither field carries a usable
// value (absent, non-positive, NaN or infinite).
func (pi PriceInfo) Resolve() (float64, bool) {
	for _, v := range []*float64{pi.CurrentPrice, pi.Price} {
		if v == nil {
			continue
		}
		p := *v
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		return p, true
	}
	return 0, false
}
