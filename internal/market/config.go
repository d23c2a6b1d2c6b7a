package market

// Config holds the tunable parameters of the simulation. The structural
// relationships (shared factor + idiosyncratic term + reversion + rare
// shocks, fill = inside quote + fraction-of-spread slippage) are fixed; the
// numeric constants are configuration.
type Config struct {
	// Size is the number of instruments built at initialization.
	Size int
	// WarmupSteps is how many evolution steps run before first use, so the
	// EMA anchors converge away from their starting price. Values below
	// EMASpan are raised to EMASpan.
	WarmupSteps int
	// EMASpan is the span of the trailing EMA anchor.
	EMASpan int
	// SparkLen is the length of each instrument's normalized spark ring.
	SparkLen int
	// SessionLength is the number of simulated days per session phase.
	SessionLength int

	// MarketDrift and MarketVol shape the shared market factor.
	MarketDrift float64
	MarketVol   float64
	// MarketShockProb is the per-step chance of a large market-wide shock;
	// MarketShockScale is the width of its symmetric distribution.
	MarketShockProb  float64
	MarketShockScale float64
	// IdioShockProb and IdioShockScale are the per-instrument equivalents.
	IdioShockProb  float64
	IdioShockScale float64
	// ReversionStrength scales the pull toward the EMA anchor;
	// ReversionClamp bounds the resulting term.
	ReversionStrength float64
	ReversionClamp    float64

	// SpreadBpsRegular and SpreadBpsExtended are the base spread in basis
	// points during and outside regular hours.
	SpreadBpsRegular  float64
	SpreadBpsExtended float64
	// SlippageFrac is the fraction of the spread added beyond the inside
	// quote for worst-case fills.
	SlippageFrac float64
	// FeePerShare is the flat per-share commission.
	FeePerShare float64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Size:          80,
		WarmupSteps:   250,
		EMASpan:       200,
		SparkLen:      24,
		SessionLength: 30,

		MarketDrift:      0.0003,
		MarketVol:        0.012,
		MarketShockProb:  0.02,
		MarketShockScale: 0.08,
		IdioShockProb:    0.01,
		IdioShockScale:   0.12,

		ReversionStrength: 0.05,
		ReversionClamp:    0.02,

		SpreadBpsRegular:  8,
		SpreadBpsExtended: 25,
		SlippageFrac:      0.25,
		FeePerShare:       0.005,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Size <= 0 {
		c.Size = d.Size
	}
	if c.EMASpan <= 0 {
		c.EMASpan = d.EMASpan
	}
	// warm-up must cover at least one EMA time constant
	if c.WarmupSteps < c.EMASpan {
		c.WarmupSteps = c.EMASpan
	}
	if c.SparkLen <= 0 {
		c.SparkLen = d.SparkLen
	}
	if c.SessionLength <= 0 {
		c.SessionLength = d.SessionLength
	}
	if c.MarketVol <= 0 {
		c.MarketVol = d.MarketVol
	}
	if c.ReversionClamp <= 0 {
		c.ReversionClamp = d.ReversionClamp
	}
	if c.SpreadBpsRegular <= 0 {
		c.SpreadBpsRegular = d.SpreadBpsRegular
	}
	if c.SpreadBpsExtended <= 0 {
		c.SpreadBpsExtended = d.SpreadBpsExtended
	}
	if c.SlippageFrac <= 0 {
		c.SlippageFrac = d.SlippageFrac
	}
	if c.FeePerShare < 0 {
		c.FeePerShare = 0
	}
	return c
}
