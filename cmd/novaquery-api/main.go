package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/novaquery/novaquery/internal/api"
	"github.com/novaquery/novaquery/internal/catalog"
	"github.com/novaquery/novaquery/internal/config"
	"github.com/novaquery/novaquery/internal/nl2sql"
	"github.com/novaquery/novaquery/internal/observability"
	"github.com/novaquery/novaquery/internal/pipeline"
	"github.com/novaquery/novaquery/internal/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("novaquery-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	schema, err := catalog.Load(cfg.Schema.Path)
	if err != nil {
		logger.Error("failed to load schema catalog", slog.Any("error", err))
		os.Exit(1)
	}

	salesStore, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		logger.Error("failed to open sales store",
			slog.String("dialect", cfg.Store.Dialect),
			slog.String("dsn", observability.MaskDSN(cfg.Store.DSN)),
			slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = salesStore.Close() }()

	generator, err := nl2sql.New(cfg.AI)
	if err != nil {
		logger.Error("failed to initialize generative backend", slog.Any("error", err))
		os.Exit(1)
	}
	if closer, ok := generator.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	service, err := pipeline.New(pipeline.Config{
		Catalog:         schema,
		Dialect:         salesStore.Dialect,
		Generator:       generator,
		Executor:        salesStore.Executor,
		Logger:          logger,
		GenerateTimeout: cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to build question pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Pipeline: service,
		Catalog:  schema,
		Readiness: api.CombineReadinessChecks(
			salesStore.Ping,
			generator.Probe,
		),
		DependencyTimeout: 3 * time.Second,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", string(salesStore.Dialect)),
			slog.String("backend", generator.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
