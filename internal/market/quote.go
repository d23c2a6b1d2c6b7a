package market

import "math"

// minTick returns the minimum spread for a price tier. Cheap instruments
// quote tighter than expensive ones.
func minTick(price float64) float64 {
	switch {
	case price < 5:
		return 0.01
	case price < 50:
		return 0.02
	default:
		return 0.05
	}
}

// spreadFor derives the bid/ask spread from price level and session.
func (u *Universe) spreadFor(price float64) float64 {
	bps := u.cfg.SpreadBpsRegular
	if u.session != SessionRegular {
		bps = u.cfg.SpreadBpsExtended
	}
	s := bps / 10000 * price
	if tick := minTick(price); s < tick {
		s = tick
	}
	return s
}

// QuoteFor computes the current quote for symbol. It reports false only
// when the symbol is not in the universe.
func (u *Universe) QuoteFor(symbol string) (Quote, bool) {
	in, ok := u.bySymbol[NormalizeSymbol(symbol)]
	if !ok {
		return Quote{}, false
	}

	spread := u.spreadFor(in.Price)
	bid := in.Price - spread/2
	if bid < 0.01 {
		bid = 0.01
	}

	return Quote{
		Symbol:  in.Symbol,
		Bid:     bid,
		Ask:     in.Price + spread/2,
		Last:    in.Price,
		Spread:  spread,
		Session: u.session,
	}, true
}

// WorstCaseFill estimates a deliberately pessimistic execution price for a
// market order: beyond the inside quote by SlippageFrac of the spread. It
// is neither the midpoint nor the last price, which keeps the simulator
// from being gamed with unrealistically favorable fills.
func (u *Universe) WorstCaseFill(side Side, symbol string) (float64, bool) {
	q, ok := u.QuoteFor(symbol)
	if !ok {
		return 0, false
	}

	slip := u.cfg.SlippageFrac * q.Spread
	var fill float64
	if side == SideBuy {
		fill = q.Ask + slip
	} else {
		fill = q.Bid - slip
	}
	if math.IsNaN(fill) || math.IsInf(fill, 0) {
		return 0, false
	}
	return fill, true
}

// FeeEstimate returns the flat per-share commission for qty shares,
// floored at zero.
func (u *Universe) FeeEstimate(qty int64) float64 {
	fee := u.cfg.FeePerShare * float64(qty)
	if fee < 0 {
		return 0
	}
	return fee
}
