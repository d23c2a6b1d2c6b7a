package market

import (
	"testing"
)

func TestQuoteUnknownSymbol(t *testing.T) {
	u := NewUniverse("quotes", DefaultConfig())

	if _, ok := u.QuoteFor("ZZZZZ"); ok {
		t.Error("expected no quote for unknown symbol")
	}
	if _, ok := u.WorstCaseFill(SideBuy, "ZZZZZ"); ok {
		t.Error("expected no fill for unknown symbol")
	}
}

func TestQuoteStructure(t *testing.T) {
	u := NewUniverse("quotes", DefaultConfig())

	q, ok := u.QuoteFor("AAA")
	if !ok {
		t.Fatal("AAA not found")
	}
	if q.Bid >= q.Ask {
		t.Errorf("bid %v not below ask %v", q.Bid, q.Ask)
	}
	if q.Bid <= 0 {
		t.Errorf("bid not positive: %v", q.Bid)
	}
	if q.Spread <= 0 {
		t.Errorf("spread not positive: %v", q.Spread)
	}
	if q.Last <= 0 {
		t.Errorf("last not positive: %v", q.Last)
	}
}

func TestSpreadTierFloors(t *testing.T) {
	u := NewUniverse("spread", DefaultConfig())

	tests := []struct {
		price float64
		floor float64
	}{
		{2.50, 0.01},
		{30, 0.02},
		{250, 0.05},
	}
	for _, tt := range tests {
		s := u.spreadFor(tt.price)
		if s < tt.floor {
			t.Errorf("price %v: spread %v below tier floor %v", tt.price, s, tt.floor)
		}
	}
}

func TestSpreadWiderOutsideRegularHours(t *testing.T) {
	u := NewUniverse("spread", DefaultConfig())

	price := 200.0
	regular := u.spreadFor(price)

	u.session = SessionPost
	extended := u.spreadFor(price)
	if extended <= regular {
		t.Errorf("extended-hours spread %v not wider than regular %v", extended, regular)
	}
}

func TestWorstCaseFillIsPessimistic(t *testing.T) {
	cfg := DefaultConfig()
	u := NewUniverse("fills", cfg)

	q, _ := u.QuoteFor("AAA")
	buy, ok := u.WorstCaseFill(SideBuy, "AAA")
	if !ok {
		t.Fatal("no buy fill")
	}
	sell, ok := u.WorstCaseFill(SideSell, "AAA")
	if !ok {
		t.Fatal("no sell fill")
	}

	if buy <= q.Ask {
		t.Errorf("buy fill %v not beyond ask %v", buy, q.Ask)
	}
	if sell >= q.Bid {
		t.Errorf("sell fill %v not below bid %v", sell, q.Bid)
	}

	wantBuy := q.Ask + cfg.SlippageFrac*q.Spread
	if diff := buy - wantBuy; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("buy fill %v, want %v", buy, wantBuy)
	}
}

func TestFeeEstimate(t *testing.T) {
	cfg := DefaultConfig()
	u := NewUniverse("fees", cfg)

	if fee := u.FeeEstimate(10); fee != cfg.FeePerShare*10 {
		t.Errorf("fee for 10 shares: %v, want %v", fee, cfg.FeePerShare*10)
	}
	if fee := u.FeeEstimate(-5); fee != 0 {
		t.Errorf("fee for negative qty should floor at 0, got %v", fee)
	}
}
