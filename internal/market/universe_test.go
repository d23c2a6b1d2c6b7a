package market

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestUniverseDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	a := NewUniverse("fixed-seed", cfg)
	b := NewUniverse("fixed-seed", cfg)

	a.StepN(50)
	b.StepN(50)

	ia := a.Instruments()
	ib := b.Instruments()
	if len(ia) != len(ib) {
		t.Fatalf("universe sizes differ: %d vs %d", len(ia), len(ib))
	}
	for i := range ia {
		if ia[i].Price != ib[i].Price {
			t.Errorf("%s: price diverged: %v != %v", ia[i].Symbol, ia[i].Price, ib[i].Price)
		}
		if ia[i].EMA != ib[i].EMA {
			t.Errorf("%s: ema diverged: %v != %v", ia[i].Symbol, ia[i].EMA, ib[i].EMA)
		}
	}
}

func TestSymbolsUniqueAndStable(t *testing.T) {
	u := NewUniverse("symbols", DefaultConfig())

	seen := make(map[string]bool)
	for _, in := range u.Instruments() {
		if len(in.Symbol) != 3 {
			t.Errorf("symbol %q is not 3 letters", in.Symbol)
		}
		if seen[in.Symbol] {
			t.Errorf("duplicate symbol %q", in.Symbol)
		}
		seen[in.Symbol] = true
	}

	if got := symbolForIndex(0); got != "AAA" {
		t.Errorf("index 0: expected AAA, got %s", got)
	}
	if got := symbolForIndex(27); got != "ABB" {
		t.Errorf("index 27: expected ABB, got %s", got)
	}
}

func TestInstrumentParameterRanges(t *testing.T) {
	u := NewUniverse("ranges", DefaultConfig())

	for _, in := range u.Instruments() {
		if in.Shares < 50e6 || in.Shares >= 1e9 {
			t.Errorf("%s: shares out of range: %v", in.Symbol, in.Shares)
		}
		if in.Drift < 0.0002 || in.Drift >= 0.0008 {
			t.Errorf("%s: drift out of range: %v", in.Symbol, in.Drift)
		}
		if in.Vol < 0.012 || in.Vol >= 0.042 {
			t.Errorf("%s: vol out of range: %v", in.Symbol, in.Vol)
		}
		if in.Beta < 0.5 || in.Beta >= 1.2 {
			t.Errorf("%s: beta out of range: %v", in.Symbol, in.Beta)
		}
	}
}

func TestProperty_PricesStayPositive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "seed")
		days := rapid.IntRange(1, 300).Draw(t, "days")

		cfg := DefaultConfig()
		cfg.Size = 12 // keep the property run fast
		u := NewUniverse(seed, cfg)
		u.StepN(days)

		for _, in := range u.Instruments() {
			if math.IsNaN(in.Price) || in.Price <= 0 {
				t.Fatalf("%s: bad price after %d days: %v", in.Symbol, days, in.Price)
			}
			if math.IsNaN(in.EMA) || in.EMA <= 0 {
				t.Fatalf("%s: bad ema after %d days: %v", in.Symbol, days, in.EMA)
			}
		}
	})
}

func TestSparkRingKeepsFixedLength(t *testing.T) {
	cfg := DefaultConfig()
	u := NewUniverse("spark", cfg)

	for day := 0; day < 40; day++ {
		u.Step()
		for _, in := range u.Instruments() {
			if len(in.Spark) != cfg.SparkLen {
				t.Fatalf("%s: spark length %d, want %d", in.Symbol, len(in.Spark), cfg.SparkLen)
			}
			for _, v := range in.Spark {
				if v < 0 || v > 1 {
					t.Fatalf("%s: spark value out of [0,1]: %v", in.Symbol, v)
				}
			}
		}
	}
}

func TestSessionCycles(t *testing.T) {
	cfg := DefaultConfig()
	u := NewUniverse("sessions", cfg)

	if u.Session() != SessionRegular {
		t.Fatalf("expected RTH at start, got %v", u.Session())
	}

	u.StepN(cfg.SessionLength)
	if u.Session() != SessionPost {
		t.Errorf("expected POST after %d days, got %v", cfg.SessionLength, u.Session())
	}
	u.StepN(cfg.SessionLength)
	if u.Session() != SessionPre {
		t.Errorf("expected PRE, got %v", u.Session())
	}
	u.StepN(cfg.SessionLength)
	if u.Session() != SessionRegular {
		t.Errorf("expected RTH again, got %v", u.Session())
	}
	if u.Day() != 3*cfg.SessionLength {
		t.Errorf("expected day %d, got %d", 3*cfg.SessionLength, u.Day())
	}
}

func TestAddSymbol(t *testing.T) {
	u := NewUniverse("add", DefaultConfig())
	before := u.Size()

	in := u.AddSymbol(" tsla ")
	if in.Symbol != "TSLA" {
		t.Errorf("expected normalized symbol TSLA, got %q", in.Symbol)
	}
	if u.Size() != before+1 {
		t.Errorf("expected size %d, got %d", before+1, u.Size())
	}

	// second add of the same symbol must not grow the universe
	again := u.AddSymbol("TSLA")
	if u.Size() != before+1 {
		t.Errorf("duplicate add grew the universe to %d", u.Size())
	}
	if again.Symbol != in.Symbol {
		t.Errorf("expected same instrument back, got %q", again.Symbol)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	u := NewUniverse("copies", DefaultConfig())

	in, ok := u.Get("AAA")
	if !ok {
		t.Fatal("AAA not found")
	}
	in.Price = -1
	in.Spark[0] = 99

	fresh, _ := u.Get("AAA")
	if fresh.Price == -1 {
		t.Error("mutating a returned instrument leaked into the universe")
	}
	if fresh.Spark[0] == 99 {
		t.Error("mutating a returned spark leaked into the universe")
	}
}
