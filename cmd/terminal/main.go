package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zappabad/papertrade/internal/config"
	"github.com/zappabad/papertrade/internal/engine"
	"github.com/zappabad/papertrade/internal/store"
	"github.com/zappabad/papertrade/tui"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stdout, so only warnings and worse go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	st, err := store.NewFile(cfg.DataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}

	engCfg := engine.DefaultConfig()
	engCfg.Seed = cfg.Seed
	engCfg.StartingCash = cfg.StartingCash
	engCfg.Market.Size = cfg.UniverseSize
	engCfg.Market.WarmupSteps = cfg.WarmupSteps

	eng := engine.New(engCfg, st, logger)
	eng.Load(context.Background())

	model := tui.NewModel(eng, cfg.TickInterval)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}

	eng.Persist(context.Background())
}
