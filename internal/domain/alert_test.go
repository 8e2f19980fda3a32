package domain

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestPriceInfoResolve(t *testing.T) {
	tests := []struct {
		name   string
		info   PriceInfo
		want   float64
		usable bool
	}{
		{"both absent", PriceInfo{}, 0, false},
		{"current price preferred", PriceInfo{CurrentPrice: fp(1.5), Price: fp(2.5)}, 1.5, true},
		{"fallback to price", PriceInfo{Price: fp(2.5)}, 2.5, true},
		{"zero current falls back", PriceInfo{CurrentPrice: fp(0), Price: fp(2.5)}, 2.5, true},
		{"negative current falls back", PriceInfo{CurrentPrice: fp(-1), Price: fp(2.5)}, 2.5, true},
		{"nan current falls back", PriceInfo{CurrentPrice: fp(math.NaN()), Price: fp(2.5)}, 2.5, true},
		{"inf current falls back", PriceInfo{CurrentPrice: fp(math.Inf(1)), Price: fp(2.5)}, 2.5, true},
		{"both unusable", PriceInfo{CurrentPrice: fp(0), Price: fp(math.NaN())}, 0, false},
		{"negative fallback unusable", PriceInfo{Price: fp(-0.1)}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, usable := tt.info.Resolve()
			if usable != tt.usable {
				t.Fatalf("Resolve() usable = %v, want %v", usable, tt.usable)
			}
			if got != tt.want {
				t.Fatalf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}
