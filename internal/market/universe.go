package market

import (
	"strings"

	"github.com/zappabad/papertrade/internal/randstream"
)

// priceEpsilon is the hard floor for prices and EMA anchors. Nothing in the
// universe is ever allowed to touch zero.
const priceEpsilon = 1e-6

var sectors = []string{
	"Technology",
	"Healthcare",
	"Financials",
	"Energy",
	"Industrials",
	"Consumer",
	"Utilities",
	"Materials",
}

var nameSuffixes = []string{
	"Holdings", "Systems", "Group", "Industries", "Labs", "Partners",
	"Dynamics", "Corp",
}

// Universe is the population of synthetic instruments plus the simulated
// clock. It is not safe for concurrent use; the engine facade serializes
// access.
type Universe struct {
	cfg      Config
	rng      *randstream.Stream
	list     []*Instrument
	bySymbol map[string]*Instrument

	day     int
	session Session
}

// NewUniverse builds cfg.Size instruments from the seed and warms the
// population up with cfg.WarmupSteps evolution steps so EMA anchors have
// converged before first use.
func NewUniverse(seed string, cfg Config) *Universe {
	cfg = cfg.withDefaults()

	u := &Universe{
		cfg:      cfg,
		rng:      randstream.New(seed),
		bySymbol: make(map[string]*Instrument, cfg.Size),
	}

	for i := 0; i < cfg.Size; i++ {
		u.insert(symbolForIndex(i))
	}

	for i := 0; i < cfg.WarmupSteps; i++ {
		u.evolve()
	}
	u.day = 0
	u.session = SessionRegular

	return u
}

// symbolForIndex encodes an index as a 3-letter base-26 symbol. Distinct
// indexes always produce distinct symbols.
func symbolForIndex(i int) string {
	return string([]byte{
		'A' + byte(i/676%26),
		'A' + byte(i/26%26),
		'A' + byte(i%26),
	})
}

// insert synthesizes a new instrument for symbol and adds it to the
// population.
func (u *Universe) insert(symbol string) *Instrument {
	sector := sectors[u.rng.IntN(len(sectors))]
	price := u.rng.Range(10, 300)

	in := &Instrument{
		Symbol:    symbol,
		Name:      symbol + " " + nameSuffixes[u.rng.IntN(len(nameSuffixes))],
		Sector:    sector,
		Shares:    u.rng.Range(50e6, 1e9),
		Drift:     u.rng.Range(0.0002, 0.0008),
		Vol:       u.rng.Range(0.012, 0.042),
		Beta:      u.rng.Range(0.5, 1.2),
		Price:     price,
		EMA:       price,
		LastClose: price,
		Spark:     u.seedSpark(),
	}

	u.list = append(u.list, in)
	u.bySymbol[symbol] = in
	return in
}

// seedSpark generates a synthetic history ring from a small independent
// random walk, min-max normalized to [0,1].
func (u *Universe) seedSpark() []float64 {
	walk := make([]float64, u.cfg.SparkLen)
	level := 0.0
	lo, hi := 0.0, 0.0
	for i := range walk {
		level += u.rng.Range(-1, 1)
		walk[i] = level
		if level < lo {
			lo = level
		}
		if level > hi {
			hi = level
		}
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	for i := range walk {
		walk[i] = (walk[i] - lo) / span
	}
	return walk
}

// Step advances the simulation by one day: every instrument gets a new
// price, then the clock and session cycle move forward.
func (u *Universe) Step() {
	u.evolve()
	u.day++
	if u.day%u.cfg.SessionLength == 0 {
		u.session = (u.session + 1) % 3
	}
}

// StepN advances the simulation by n days.
func (u *Universe) StepN(n int) {
	for i := 0; i < n; i++ {
		u.Step()
	}
}

// evolve applies one simulated day of returns to the whole population. The
// market factor is drawn once and shared by every instrument; that is what
// produces correlated market-wide days alongside idiosyncratic dispersion.
func (u *Universe) evolve() {
	cfg := u.cfg

	factor := cfg.MarketDrift + cfg.MarketVol*(u.rng.Float64()-0.5)
	if u.rng.Float64() < cfg.MarketShockProb {
		factor += (u.rng.Float64() - 0.5) * cfg.MarketShockScale
	}

	for _, in := range u.list {
		reversion := cfg.ReversionStrength * (in.EMA - in.Price) / in.EMA
		if reversion > cfg.ReversionClamp {
			reversion = cfg.ReversionClamp
		} else if reversion < -cfg.ReversionClamp {
			reversion = -cfg.ReversionClamp
		}

		shock := 0.0
		if u.rng.Float64() < cfg.IdioShockProb {
			shock = (u.rng.Float64() - 0.5) * cfg.IdioShockScale
		}

		ret := in.Drift + in.Vol*(u.rng.Float64()-0.5) + in.Beta*factor + reversion + shock

		next := in.Price * (1 + ret)
		if next < priceEpsilon {
			next = priceEpsilon
		}

		in.EMA += (next - in.EMA) / float64(cfg.EMASpan)
		if in.EMA < priceEpsilon {
			in.EMA = priceEpsilon
		}

		if in.LastClose > 0 {
			in.ChangePct = (next - in.LastClose) / in.LastClose * 100
		}
		in.Price = next
		in.LastClose = next

		copy(in.Spark, in.Spark[1:])
		in.Spark[len(in.Spark)-1] = sparkPoint(in.ChangePct)
	}
}

// sparkPoint maps a daily change percent onto the normalized [0,1] display
// range, centered at 0.5.
func sparkPoint(changePct float64) float64 {
	p := 0.5 + changePct/8
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// AddSymbol ensures an instrument exists for symbol, creating one with
// synthesized parameters on first reference. The returned value is a copy.
func (u *Universe) AddSymbol(symbol string) Instrument {
	symbol = NormalizeSymbol(symbol)
	if in, ok := u.bySymbol[symbol]; ok {
		return cloneInstrument(in)
	}
	return cloneInstrument(u.insert(symbol))
}

// NormalizeSymbol trims and uppercases a user-supplied symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Get returns a copy of the instrument for symbol.
func (u *Universe) Get(symbol string) (Instrument, bool) {
	in, ok := u.bySymbol[NormalizeSymbol(symbol)]
	if !ok {
		return Instrument{}, false
	}
	return cloneInstrument(in), true
}

// Price returns the current price for symbol.
func (u *Universe) Price(symbol string) (float64, bool) {
	in, ok := u.bySymbol[NormalizeSymbol(symbol)]
	if !ok {
		return 0, false
	}
	return in.Price, true
}

// Instruments returns a copy of the whole population.
func (u *Universe) Instruments() []Instrument {
	out := make([]Instrument, len(u.list))
	for i, in := range u.list {
		out[i] = cloneInstrument(in)
	}
	return out
}

// Size returns the number of instruments in the universe.
func (u *Universe) Size() int { return len(u.list) }

// Day returns the simulated day counter.
func (u *Universe) Day() int { return u.day }

// Session returns the current session phase.
func (u *Universe) Session() Session { return u.session }

func cloneInstrument(in *Instrument) Instrument {
	out := *in
	out.Spark = append([]float64(nil), in.Spark...)
	return out
}
