package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urbancanopy/ground-temp-etl/internal/adapter/csvio"
	httpadapter "github.com/urbancanopy/ground-temp-etl/internal/adapter/http"
	kafkaadapter "github.com/urbancanopy/ground-temp-etl/internal/adapter/kafka"
	"github.com/urbancanopy/ground-temp-etl/internal/config"
	"github.com/urbancanopy/ground-temp-etl/internal/observability"
	"github.com/urbancanopy/ground-temp-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Load the yearly weather dataset once; every job solves against it.
	records, err := csvio.ReadEPWFile(cfg.EPWPath)
	if err != nil {
		logger.Error("failed to load weather data", "path", cfg.EPWPath, "error", err)
		os.Exit(1)
	}
	logger.Info("weather data loaded", "path", cfg.EPWPath, "records", len(records))

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	var solver pipeline.GroupSolver = pipeline.EquilibriumSolver{}
	solver = pipeline.NewCachedGroupSolver(solver, cfg.SolveCacheSize, metrics)

	transformer := pipeline.NewTransformer(records, solver, cfg.SolveWorkers, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	info := httpadapter.WeatherInfo{Path: cfg.EPWPath, Records: len(records)}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, info, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
