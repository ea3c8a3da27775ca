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
	"github.com/ibraahimlab/voice-collector/internal/ingest"
	"github.com/ibraahimlab/voice-collector/internal/logging"
	"github.com/ibraahimlab/voice-collector/internal/metrics"
	"github.com/ibraahimlab/voice-collector/internal/server"
	"github.com/ibraahimlab/voice-collector/internal/store"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voice-collector"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("repository", cfg.Store.Repository),
		slog.String("subfolder", cfg.Store.Subfolder),
		slog.String("audio_format", cfg.Audio.Format),
		slog.Int("target_sample_rate", cfg.Audio.TargetSampleRate),
		slog.Int("upload_max_attempts", cfg.Ingest.MaxAttempts),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// The ingestion service creates the repository on first use.
	st, err := store.Open(cfg.Store, true)
	if err != nil {
		logger.Error("Failed to open object store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Object store initialized",
		slog.String("backend", cfg.Store.Backend),
		slog.String("repository", cfg.Store.Repository),
	)

	pipeline := ingest.NewPipeline(st, ingest.Config{
		Subfolder:        cfg.Store.Subfolder,
		Format:           cfg.Audio.Format,
		TargetSampleRate: cfg.Audio.TargetSampleRate,
		MaxAttempts:      cfg.Ingest.MaxAttempts,
		RetryBackoff:     cfg.Ingest.GetRetryBackoff(),
	}, logger, appMetrics)
	logger.Info("Ingestion pipeline initialized")

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:    cfg.HTTP.Port,
		Address: cfg.HTTP.Address,
	}, logger, cfg, pipeline, appMetrics)

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}
