package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/novaquery/novaquery/internal/config"
	"github.com/novaquery/novaquery/internal/demo/seed"
	"github.com/novaquery/novaquery/internal/migrations"
	"github.com/novaquery/novaquery/internal/observability"
	"github.com/novaquery/novaquery/internal/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("novaquery-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	seedCfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		logger.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	salesStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open sales store",
			slog.String("dsn", observability.MaskDSN(cfg.Store.DSN)),
			slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = salesStore.Close() }()

	// Embedded DuckDB starts empty, so it needs the schema before seeding.
	runner, err := migrations.NewRunner(salesStore.Dialect)
	if err == nil {
		_, err = runner.Up(ctx, salesStore.DB, 0)
	}
	if err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dataset := seed.NewGenerator(seedCfg.Seed, seedCfg.Window()).Generate(seedCfg.Users, seedCfg.Transactions)
	loader := &seed.Loader{DB: salesStore.DB, Dialect: salesStore.Dialect}
	counts, err := loader.Load(ctx, dataset, seedCfg.Truncate)
	if err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete",
		slog.Int("users", counts.Users),
		slog.Int("transactions", counts.Transactions),
		slog.Int("order_items", counts.OrderItems),
		slog.Int("add_ons", counts.AddOns))
}
