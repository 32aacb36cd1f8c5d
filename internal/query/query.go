// Package query defines how generated SQL reaches the sales store.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	DuckDB   Dialect = "duckdb"
)

func ParseDialect(raw string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(raw))); d {
	case MySQL, Postgres, DuckDB:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", raw)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case DuckDB:
		return "duckdb"
	default:
		return "mysql"
	}
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) String() string {
	return string(d)
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Executor runs one SELECT statement. Store errors are returned wrapped and
// never retried.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
}
