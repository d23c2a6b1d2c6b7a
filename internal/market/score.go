package market

import (
	"math"
	"sort"
)

// scoreMax is the top of the opportunity score range.
const scoreMax = 30

// composite signal weights: trend vs short-term momentum.
const (
	trendWeight    = 0.6
	momentumWeight = 0.4
)

// Rank computes the cross-sectionally calibrated opportunity ranking for
// the given population. Each instrument's trend signal (price relative to
// its EMA anchor) and momentum signal (last daily change) are converted to
// percentile ranks within the population, blended, and scaled to [0,30].
// The result is sorted by score descending and truncated to limit rows.
//
// Rank is a pure function of its input: repeated calls on the same state
// return identical output. Nothing here is persisted or smoothed across
// calls.
func Rank(instruments []Instrument, limit int) []Opportunity {
	n := len(instruments)
	if n == 0 {
		return nil
	}

	rel := make([]float64, n)
	mom := make([]float64, n)
	for i, in := range instruments {
		rel[i] = (in.Price - in.EMA) / in.EMA * 100
		mom[i] = in.ChangePct
	}

	sortedRel := append([]float64(nil), rel...)
	sortedMom := append([]float64(nil), mom...)
	sort.Float64s(sortedRel)
	sort.Float64s(sortedMom)

	out := make([]Opportunity, n)
	for i, in := range instruments {
		composite := trendWeight*percentileRank(sortedRel, rel[i]) +
			momentumWeight*percentileRank(sortedMom, mom[i])

		score := int(math.Round(scoreMax * composite))
		if score < 0 {
			score = 0
		} else if score > scoreMax {
			score = scoreMax
		}

		out[i] = Opportunity{
			Symbol:    in.Symbol,
			Name:      in.Name,
			Price:     in.Price,
			ChangePct: in.ChangePct,
			Score:     score,
			Spark:     append([]float64(nil), in.Spark...),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// percentileRank returns the fraction of elements <= v in the sorted
// slice, over N-1. Found by binary search.
func percentileRank(sorted []float64, v float64) float64 {
	if len(sorted) < 2 {
		return 0.5
	}
	// first index with element > v == count of elements <= v
	count := sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
	return float64(count) / float64(len(sorted)-1)
}

// Snapshot returns the ranked opportunity list for the universe's current
// state.
func (u *Universe) Snapshot(limit int) []Opportunity {
	return Rank(u.Instruments(), limit)
}
