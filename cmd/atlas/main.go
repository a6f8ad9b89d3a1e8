package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/impact-atlas/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/impact-atlas/internal/adapter/kafka"
	"github.com/couchcryptid/impact-atlas/internal/bodies"
	"github.com/couchcryptid/impact-atlas/internal/config"
	"github.com/couchcryptid/impact-atlas/internal/ecoregion"
	"github.com/couchcryptid/impact-atlas/internal/history"
	"github.com/couchcryptid/impact-atlas/internal/neo"
	"github.com/couchcryptid/impact-atlas/internal/observability"
	"github.com/couchcryptid/impact-atlas/internal/pipeline"
	"github.com/couchcryptid/impact-atlas/internal/risk"
	"github.com/couchcryptid/impact-atlas/internal/service"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// A broken dataset degrades to an empty index: every point becomes ocean.
	index, stats, err := ecoregion.LoadFile(cfg.EcoregionsPath, logger)
	if err != nil {
		logger.Error("ecoregion dataset unusable, serving ocean only", "path", cfg.EcoregionsPath, "error", err)
		index, stats = ecoregion.NewIndex(nil, logger)
	}
	metrics.RegionsLoaded.Set(float64(stats.Loaded))
	metrics.RegionsSkipped.Set(float64(stats.Skipped))
	logger.Info("ecoregion index ready", "loaded", stats.Loaded, "skipped", stats.Skipped)

	var classifier ecoregion.Classifier = index
	if cfg.RegionCacheSize > 0 {
		classifier = ecoregion.NewCachedClassifier(index, cfg.RegionCacheSize, metrics)
		logger.Info("region cache enabled", "cache_size", cfg.RegionCacheSize)
	}

	catalog, err := neo.LoadFile(cfg.NEOCatalogPath, logger)
	if err != nil {
		logger.Error("neo catalog unusable, serving an empty list", "path", cfg.NEOCatalogPath, "error", err)
		catalog = neo.NewCatalog(nil)
	}

	store := bodies.Open(cfg.CustomBodiesPath, clockwork.NewRealClock(), logger)

	var (
		recorders history.Multi
		publisher *pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.HistoryPath != "" {
		recorders = append(recorders, history.NewFileRecorder(cfg.HistoryPath))
	}
	if cfg.HistoryKafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = pipeline.New(writer, logger, metrics, cfg.BatchSize, cfg.BatchFlushInterval, cfg.HistoryQueueSize)
		recorders = append(recorders, publisher)
		logger.Info("kafka history publishing enabled", "topic", cfg.KafkaHistoryTopic, "brokers", cfg.KafkaBrokers)
	}

	svc := service.New(risk.NewAssessor(classifier, nil), catalog, store, recorders, metrics, logger)
	svc.MarkReady()

	ready := httpadapter.ReadinessGroup{svc}
	if publisher != nil {
		ready = append(ready, sharedobs.ReadinessChecker(publisher))
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, ready, cfg.CORSAllowedOrigin, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start history publisher.
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		if publisher == nil {
			return
		}
		if err := publisher.Run(ctx); err != nil {
			logger.Error("history publisher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("history publisher did not drain before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
