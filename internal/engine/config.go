package engine

import "github.com/zappabad/papertrade/internal/market"

// Config holds configuration for the engine facade.
type Config struct {
	// Seed drives the deterministic random stream behind the universe.
	Seed string
	// StartingCash is the ledger baseline for new and reset ledgers.
	StartingCash float64
	// MinStartingCash is the floor applied to reset requests.
	MinStartingCash float64
	// SnapshotSize is the maximum number of ranked opportunities returned.
	SnapshotSize int
	// LedgerKey and WatchlistKey are the persistence keys.
	LedgerKey    string
	WatchlistKey string
	// Market is the configuration for the simulated universe.
	Market market.Config
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Seed:            "papertrade-v1",
		StartingCash:    10000,
		MinStartingCash: 1000,
		SnapshotSize:    60,
		LedgerKey:       "papertrade.ledger.v1",
		WatchlistKey:    "papertrade.watchlist.v1",
		Market:          market.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Seed == "" {
		c.Seed = d.Seed
	}
	if c.StartingCash <= 0 {
		c.StartingCash = d.StartingCash
	}
	if c.MinStartingCash <= 0 {
		c.MinStartingCash = d.MinStartingCash
	}
	if c.SnapshotSize <= 0 {
		c.SnapshotSize = d.SnapshotSize
	}
	if c.LedgerKey == "" {
		c.LedgerKey = d.LedgerKey
	}
	if c.WatchlistKey == "" {
		c.WatchlistKey = d.WatchlistKey
	}
	return c
}
