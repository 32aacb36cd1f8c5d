// Package store opens the configured sales store for any supported dialect.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/novaquery/novaquery/internal/config"
	"github.com/novaquery/novaquery/internal/query"
	"github.com/novaquery/novaquery/internal/query/duckdb"
	"github.com/novaquery/novaquery/internal/query/sqlstore"
)

type Store struct {
	DB       *sql.DB
	Dialect  query.Dialect
	Executor *sqlstore.Executor
}

func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	dialect, err := query.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if dialect == query.DuckDB {
		db, err = duckdb.Open(ctx, cfg.DSN)
		if err == nil {
			sqlstore.Configure(db, poolConfig(dialect, cfg))
		}
	} else {
		db, err = sqlstore.Open(ctx, poolConfig(dialect, cfg))
	}
	if err != nil {
		return nil, err
	}
	return New(db, dialect, cfg), nil
}

// New wraps an already opened handle.
func New(db *sql.DB, dialect query.Dialect, cfg config.StoreConfig) *Store {
	exec := sqlstore.NewExecutor(db, cfg.QueryTimeout)
	if dialect == query.DuckDB {
		exec = duckdb.NewExecutor(db, cfg.QueryTimeout)
	}
	return &Store{DB: db, Dialect: dialect, Executor: exec}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s store: %w", s.Dialect, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func poolConfig(dialect query.Dialect, cfg config.StoreConfig) sqlstore.DBConfig {
	return sqlstore.DBConfig{
		Dialect:         dialect,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}
