// Package duckdb serves the sales tables from an embedded DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/marcboeker/go-duckdb/v2"
	"github.com/shopspring/decimal"

	"github.com/novaquery/novaquery/internal/query"
	"github.com/novaquery/novaquery/internal/query/sqlstore"
)

// Open opens the database file at path, or an in-memory database when path
// is empty.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}

func NewExecutor(db *sql.DB, timeout time.Duration) *sqlstore.Executor {
	return &sqlstore.Executor{DB: db, Timeout: timeout, Normalize: NormalizeValue}
}

// NormalizeValue converts DuckDB decimals and HUGEINTs before falling back to
// the shared normalisation.
func NormalizeValue(value any, databaseType string) any {
	switch typed := value.(type) {
	case duckdb.Decimal:
		if typed.Value == nil {
			return nil
		}
		return decimal.NewFromBigInt(typed.Value, -int32(typed.Scale))
	case *big.Int:
		// SUM over integer columns comes back as HUGEINT.
		if typed == nil {
			return nil
		}
		if typed.IsInt64() {
			return typed.Int64()
		}
		return decimal.NewFromBigInt(typed, 0)
	default:
		return query.NormalizeValue(value, databaseType)
	}
}
