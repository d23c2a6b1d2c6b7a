package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zappabad/papertrade/internal/api"
	"github.com/zappabad/papertrade/internal/config"
	"github.com/zappabad/papertrade/internal/engine"
	"github.com/zappabad/papertrade/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	engCfg := engine.DefaultConfig()
	engCfg.Seed = cfg.Seed
	engCfg.StartingCash = cfg.StartingCash
	engCfg.Market.Size = cfg.UniverseSize
	engCfg.Market.WarmupSteps = cfg.WarmupSteps

	eng := engine.New(engCfg, st, logger)

	logger.Info("warming up universe",
		slog.Int("size", cfg.UniverseSize),
		slog.Int("warmup_steps", cfg.WarmupSteps))
	eng.Load(ctx)

	// background clock: one simulated day per tick interval
	go func() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				eng.TickAll(1)
			}
		}
	}()

	handler := api.NewHandler(eng, logger)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}

	// final synchronous write so the last trades survive the process
	eng.Persist(shutdownCtx)
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	f, err := store.NewFile(cfg.DataFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {}, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
