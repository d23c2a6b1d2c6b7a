// Package config loads host configuration for the papertrade commands
// from a YAML file with environment-variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the server and terminal hosts.
type Config struct {
	// Addr is the HTTP listen address for the server host.
	Addr string `yaml:"addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Seed drives the deterministic universe. Same seed, same market.
	Seed string `yaml:"seed"`
	// StartingCash is the paper ledger baseline.
	StartingCash float64 `yaml:"starting_cash"`
	// UniverseSize is the number of instruments built at startup.
	UniverseSize int `yaml:"universe_size"`
	// WarmupSteps is the number of warm-up evolution steps; values below
	// the EMA span are raised to it.
	WarmupSteps int `yaml:"warmup_steps"`

	// TickInterval is how often the host advances the simulated clock.
	TickInterval time.Duration `yaml:"tick_interval"`

	// DataFile is the JSON file used for persistence when PostgresDSN is
	// empty.
	DataFile string `yaml:"data_file"`
	// PostgresDSN selects the Postgres persistence backend when set.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Addr:         ":8080",
		LogLevel:     "info",
		Seed:         "papertrade-v1",
		StartingCash: 10000,
		UniverseSize: 80,
		WarmupSteps:  250,
		TickInterval: 3 * time.Second,
		DataFile:     "papertrade.json",
	}
}

// Load reads a YAML config file, expands ${VAR} environment variables,
// applies defaults, and validates. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Seed == "" {
		c.Seed = d.Seed
	}
	if c.StartingCash <= 0 {
		c.StartingCash = d.StartingCash
	}
	if c.UniverseSize <= 0 {
		c.UniverseSize = d.UniverseSize
	}
	if c.WarmupSteps <= 0 {
		c.WarmupSteps = d.WarmupSteps
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.DataFile == "" && c.PostgresDSN == "" {
		c.DataFile = d.DataFile
	}
}

// Validate checks the configuration for values the hosts cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.UniverseSize > 17576 {
		return fmt.Errorf("universe_size must fit 3-letter symbols (max 17576); got %d", c.UniverseSize)
	}
	if c.TickInterval < 100*time.Millisecond {
		return fmt.Errorf("tick_interval must be at least 100ms; got %s", c.TickInterval)
	}
	return nil
}
