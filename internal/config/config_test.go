package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Seed != "papertrade-v1" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileWithEnvExpansion(t *testing.T) {
	t.Setenv("PT_SEED", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "seed: ${PT_SEED}\nuniverse_size: 40\ntick_interval: 1s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Seed != "from-env" {
		t.Errorf("seed %q, want from-env", cfg.Seed)
	}
	if cfg.UniverseSize != 40 {
		t.Errorf("universe_size %d, want 40", cfg.UniverseSize)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("tick_interval %s, want 1s", cfg.TickInterval)
	}
	// unset fields fall back to defaults
	if cfg.Addr != ":8080" {
		t.Errorf("addr %q, want default", cfg.Addr)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "log_level: verbose\n"},
		{"universe too large", "universe_size: 20000\n"},
		{"tick too fast", "tick_interval: 1ms\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
