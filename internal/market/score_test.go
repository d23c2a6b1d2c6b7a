package market

import (
	"testing"

	"pgregory.net/rapid"
)

func TestSnapshotBounds(t *testing.T) {
	u := NewUniverse("scores", DefaultConfig())
	u.StepN(10)

	snap := u.Snapshot(60)
	if len(snap) == 0 {
		t.Fatal("empty snapshot")
	}
	if len(snap) > 60 {
		t.Errorf("snapshot longer than 60: %d", len(snap))
	}
	if len(snap) > u.Size() {
		t.Errorf("snapshot longer than universe: %d > %d", len(snap), u.Size())
	}

	for i, op := range snap {
		if op.Score < 0 || op.Score > 30 {
			t.Errorf("%s: score out of [0,30]: %d", op.Symbol, op.Score)
		}
		if i > 0 && snap[i-1].Score < op.Score {
			t.Errorf("snapshot not sorted descending at %d: %d < %d", i, snap[i-1].Score, op.Score)
		}
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	u := NewUniverse("scores", DefaultConfig())
	u.StepN(25)

	a := u.Snapshot(60)
	b := u.Snapshot(60)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Symbol != b[i].Symbol || a[i].Score != b[i].Score {
			t.Errorf("row %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRankEmptyAndSingle(t *testing.T) {
	if got := Rank(nil, 60); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}

	one := []Instrument{{Symbol: "AAA", Price: 100, EMA: 95, ChangePct: 1}}
	snap := Rank(one, 60)
	if len(snap) != 1 {
		t.Fatalf("expected 1 row, got %d", len(snap))
	}
	if snap[0].Score < 0 || snap[0].Score > 30 {
		t.Errorf("single-instrument score out of range: %d", snap[0].Score)
	}
}

func TestRankSpreadsExtremes(t *testing.T) {
	// A clear winner and a clear loser should land at opposite ends.
	instruments := []Instrument{
		{Symbol: "TOP", Price: 120, EMA: 100, ChangePct: 4},
		{Symbol: "MID", Price: 100, EMA: 100, ChangePct: 0},
		{Symbol: "LOW", Price: 80, EMA: 100, ChangePct: -4},
	}

	snap := Rank(instruments, 10)
	if snap[len(snap)-1].Symbol != "LOW" {
		t.Errorf("expected LOW last, got %s", snap[len(snap)-1].Symbol)
	}
	var top, low Opportunity
	for _, op := range snap {
		switch op.Symbol {
		case "TOP":
			top = op
		case "LOW":
			low = op
		}
	}
	if top.Score <= low.Score {
		t.Errorf("winner score %d not above loser %d", top.Score, low.Score)
	}
}

func TestProperty_ScoreBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		instruments := make([]Instrument, n)
		for i := range instruments {
			instruments[i] = Instrument{
				Symbol:    symbolForIndex(i),
				Price:     rapid.Float64Range(0.01, 1000).Draw(t, "price"),
				EMA:       rapid.Float64Range(0.01, 1000).Draw(t, "ema"),
				ChangePct: rapid.Float64Range(-50, 50).Draw(t, "chg"),
			}
		}

		snap := Rank(instruments, 60)
		if len(snap) != n {
			t.Fatalf("expected %d rows, got %d", n, len(snap))
		}
		for i, op := range snap {
			if op.Score < 0 || op.Score > 30 {
				t.Fatalf("score out of bounds: %d", op.Score)
			}
			if i > 0 && snap[i-1].Score < op.Score {
				t.Fatalf("not sorted descending at %d", i)
			}
		}
	})
}
