package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/flightpath-labs/notam-interp/internal/adapter/http"
	kafkaadapter "github.com/flightpath-labs/notam-interp/internal/adapter/kafka"
	"github.com/flightpath-labs/notam-interp/internal/config"
	"github.com/flightpath-labs/notam-interp/internal/domain"
	"github.com/flightpath-labs/notam-interp/internal/memory"
	"github.com/flightpath-labs/notam-interp/internal/observability"
	"github.com/flightpath-labs/notam-interp/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	metrics := observability.NewMetrics()

	store := memory.Open(cfg.MemoryPath)
	logger.Info("memory store opened", "path", store.Path(), "entries", store.Len())
	metrics.MemoryEntries.Set(float64(store.Len()))

	var corrections domain.CorrectionSource = store
	var cache httpadapter.Purger
	if cfg.MemoryCacheSize > 0 {
		cached := memory.NewCachedCorrections(store, cfg.MemoryCacheSize)
		corrections = cached
		cache = cached
	}

	interpreter := pipeline.NewInterpreter(store, corrections, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The Kafka ingest path is feature-flagged; the HTTP API is always on.
	ready := httpadapter.ReadinessFunc(func(context.Context) error { return nil })
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(interpreter)

		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = httpadapter.ReadinessFunc(p.CheckReadiness)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("kafka ingest enabled",
			"source", cfg.KafkaSourceTopic, "sink", cfg.KafkaSinkTopic, "group", cfg.KafkaGroupID)
	} else {
		logger.Info("kafka ingest disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, interpreter, store, cache, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
