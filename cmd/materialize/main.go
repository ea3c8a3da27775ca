package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ibraahimlab/voice-collector/internal/config"
	"github.com/ibraahimlab/voice-collector/internal/logging"
	"github.com/ibraahimlab/voice-collector/internal/materialize"
	"github.com/ibraahimlab/voice-collector/internal/metrics"
	"github.com/ibraahimlab/voice-collector/internal/store"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	logger.Info("Materialization starting",
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("repository", cfg.Store.Repository),
		slog.String("cache_dir", cfg.Materialize.CacheDir),
		slog.String("work_dir", cfg.Materialize.WorkDir),
	)

	// A missing repository is fatal here; the pass never creates one.
	st, err := store.Open(cfg.Store, false)
	if err != nil {
		logger.Error("Failed to open object store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appMetrics := metrics.NewMetrics()

	pass := materialize.NewPass(st, materialize.Config{
		CacheDir:       cfg.Materialize.CacheDir,
		WorkDir:        cfg.Materialize.WorkDir,
		ManifestPrefix: cfg.Materialize.ManifestPrefix,
	}, logger, appMetrics)

	// A signal cancels in-flight store operations; cleanup still runs.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startTime := time.Now()
	if err := pass.Run(ctx); err != nil {
		logger.Error("Materialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Materialization finished",
		slog.Duration("elapsed", time.Since(startTime)),
	)
}
