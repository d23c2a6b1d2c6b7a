package engine

import (
	"context"
	"math"
	"testing"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Market.Size = 20 // keep warm-up fast
	e := New(cfg, store.NewMemory(), nil)
	e.Load(context.Background())
	return e
}

func TestLoadIdempotent(t *testing.T) {
	e := newTestEngine(t)

	day := e.Day()
	snap := e.Snapshot()

	e.Load(context.Background())
	if e.Day() != day {
		t.Errorf("second load advanced the clock: %d -> %d", day, e.Day())
	}
	if len(e.Snapshot()) != len(snap) {
		t.Errorf("second load changed the universe")
	}
}

func TestEngineDeterminism(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa) != len(sb) {
		t.Fatalf("snapshot sizes differ: %d vs %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i].Symbol != sb[i].Symbol || sa[i].Price != sb[i].Price || sa[i].Score != sb[i].Score {
			t.Errorf("row %d diverged: %+v vs %+v", i, sa[i], sb[i])
		}
	}
}

func TestBuyUnknownSymbol(t *testing.T) {
	e := newTestEngine(t)
	before := e.Portfolio()

	res := e.Buy("ZZZ", 5)
	if res.OK {
		t.Fatal("expected rejection")
	}
	if res.Reason != "No quote for symbol." {
		t.Errorf("reason %q", res.Reason)
	}

	after := e.Portfolio()
	if after.Cash != before.Cash || len(after.Positions) != len(before.Positions) {
		t.Error("rejected buy mutated the ledger")
	}
}

func TestBuyAndSellFlow(t *testing.T) {
	e := newTestEngine(t)

	q, ok := e.Quote("AAA")
	if !ok {
		t.Fatal("no quote for AAA")
	}

	before := e.Portfolio().Cash
	res := e.Buy("aaa ", 2) // normalization is the engine's job
	if !res.OK {
		t.Fatalf("buy rejected: %s", res.Reason)
	}
	if res.FillPrice <= q.Ask {
		t.Errorf("fill %v not beyond ask %v", res.FillPrice, q.Ask)
	}
	wantFee := e.FeeEstimate(2)
	if res.Fee != wantFee {
		t.Errorf("fee %v, want %v", res.Fee, wantFee)
	}

	cost := res.FillPrice*2 + res.Fee
	after := e.Portfolio()
	if diff := math.Abs((before - after.Cash) - cost); diff > 1e-9 {
		t.Errorf("cash delta %v, want %v", before-after.Cash, cost)
	}
	if len(after.Positions) != 1 || after.Positions[0].Qty != 2 {
		t.Fatalf("unexpected positions: %+v", after.Positions)
	}

	// partial then clamped-full sell
	if res := e.Sell("AAA", 1); !res.OK {
		t.Fatalf("partial sell rejected: %s", res.Reason)
	}
	if res := e.Sell("AAA", 100); !res.OK {
		t.Fatalf("closing sell rejected: %s", res.Reason)
	}
	if got := e.Portfolio().Positions; len(got) != 0 {
		t.Errorf("position lingers after full sell: %+v", got)
	}

	if res := e.Sell("AAA", 1); res.OK || res.Reason != "No open position." {
		t.Errorf("expected NoPosition rejection, got %+v", res)
	}

	if orders := e.Orders(); len(orders) != 3 {
		t.Errorf("expected 3 orders, got %d", len(orders))
	} else if orders[0].Side != market.SideSell {
		t.Errorf("most recent order should be the sell: %+v", orders[0])
	}
}

func TestResetPaper(t *testing.T) {
	e := newTestEngine(t)
	e.Buy("AAA", 1)

	// below the floor: clamped up
	e.ResetPaper(500)
	p := e.Portfolio()
	if p.Cash != 1000 {
		t.Errorf("cash %v, want floor 1000", p.Cash)
	}
	if len(p.Positions) != 0 {
		t.Error("reset kept positions")
	}
	if len(e.Orders()) != 0 {
		t.Error("reset kept orders")
	}

	// invalid: falls back to the default
	e.ResetPaper(math.NaN())
	if got := e.Portfolio().Cash; got != 10000 {
		t.Errorf("cash %v, want default 10000", got)
	}

	// valid: taken as-is
	e.ResetPaper(25000)
	if got := e.Portfolio().Cash; got != 25000 {
		t.Errorf("cash %v, want 25000", got)
	}
}

func TestTickAllReMarksPositions(t *testing.T) {
	e := newTestEngine(t)
	if res := e.Buy("AAA", 1); !res.OK {
		t.Fatalf("buy: %s", res.Reason)
	}

	day := e.Day()
	e.TickAll(5)
	if e.Day() != day+5 {
		t.Errorf("day %d, want %d", e.Day(), day+5)
	}

	price, _ := e.Price("AAA")
	pos := e.Portfolio().Positions[0]
	if pos.Last != price {
		t.Errorf("position last %v, want current price %v", pos.Last, price)
	}
}

func TestAddToUniverse(t *testing.T) {
	e := newTestEngine(t)

	if _, ok := e.Quote("NVDA"); ok {
		t.Fatal("NVDA should not exist yet")
	}
	e.AddToUniverse("nvda")
	if _, ok := e.Quote("NVDA"); !ok {
		t.Error("NVDA missing after AddToUniverse")
	}
}

func TestSnapshotBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Market.Size = 100
	e := New(cfg, store.NewMemory(), nil)
	e.Load(context.Background())

	snap := e.Snapshot()
	if len(snap) > 60 {
		t.Errorf("snapshot length %d exceeds 60", len(snap))
	}
	for i, op := range snap {
		if op.Score < 0 || op.Score > 30 {
			t.Errorf("score out of bounds: %d", op.Score)
		}
		if i > 0 && snap[i-1].Score < op.Score {
			t.Errorf("not sorted descending at %d", i)
		}
	}
}

func TestListeners(t *testing.T) {
	e := newTestEngine(t)

	var order []string
	offA := e.On(func() { order = append(order, "a") })
	e.On(func() { order = append(order, "b") })

	e.TickAll(1)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("listeners not called in subscription order: %v", order)
	}

	offA()
	order = nil
	e.TickAll(1)
	if len(order) != 1 || order[0] != "b" {
		t.Errorf("unsubscribe did not take effect: %v", order)
	}
}

func TestListenerPanicIsolated(t *testing.T) {
	e := newTestEngine(t)

	called := false
	e.On(func() { panic("bad listener") })
	e.On(func() { called = true })

	e.TickAll(1) // must not panic through
	if !called {
		t.Error("second listener not reached after first panicked")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Market.Size = 20

	a := New(cfg, st, nil)
	a.Load(ctx)
	if res := a.Buy("AAA", 3); !res.OK {
		t.Fatalf("buy: %s", res.Reason)
	}
	if res := a.Buy("AAB", 2); !res.OK {
		t.Fatalf("buy: %s", res.Reason)
	}
	a.AddToWatchlist("AAC")
	a.Persist(ctx)

	b := New(cfg, st, nil)
	b.Load(ctx)

	pa, pb := a.Portfolio(), b.Portfolio()
	if math.Abs(pa.Cash-pb.Cash) > 1e-9 {
		t.Errorf("cash %v, want %v", pb.Cash, pa.Cash)
	}
	if len(pb.Positions) != len(pa.Positions) {
		t.Errorf("positions %d, want %d", len(pb.Positions), len(pa.Positions))
	}
	if len(b.Orders()) != len(a.Orders()) {
		t.Errorf("orders %d, want %d", len(b.Orders()), len(a.Orders()))
	}
	if w := b.Watchlist(); len(w) != 1 || w[0] != "AAC" {
		t.Errorf("watchlist lost in round trip: %v", w)
	}
}

func TestWatchlist(t *testing.T) {
	e := newTestEngine(t)

	e.AddToWatchlist("aaa")
	e.AddToWatchlist("AAA") // duplicate
	e.AddToWatchlist("QQQ") // unknown symbol gets created

	w := e.Watchlist()
	if len(w) != 2 {
		t.Fatalf("watchlist %v, want 2 entries", w)
	}
	if _, ok := e.Quote("QQQ"); !ok {
		t.Error("watchlisted symbol not added to universe")
	}

	e.RemoveFromWatchlist("AAA")
	if w := e.Watchlist(); len(w) != 1 || w[0] != "QQQ" {
		t.Errorf("watchlist after remove: %v", w)
	}
}

func TestAttachNote(t *testing.T) {
	e := newTestEngine(t)
	res := e.Buy("AAA", 1)
	if !res.OK {
		t.Fatalf("buy: %s", res.Reason)
	}

	if !e.AttachNote(res.OrderID, "first trade") {
		t.Fatal("order not found")
	}
	if e.Orders()[0].Note != "first trade" {
		t.Error("note not attached")
	}
}
