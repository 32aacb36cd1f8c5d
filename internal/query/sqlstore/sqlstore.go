// Package sqlstore runs generated SQL against MySQL or PostgreSQL through
// database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/novaquery/novaquery/internal/query"
)

type DBConfig struct {
	Dialect         query.Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Open opens a pooled handle and pings it before returning.
func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store dsn is required")
	}
	if cfg.Dialect == "" {
		cfg.Dialect = query.MySQL
	}

	db, err := sql.Open(cfg.Dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Dialect, err)
	}
	Configure(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Dialect, err)
	}
	return db, nil
}

// Configure applies the pool limits that are set.
func Configure(db *sql.DB, cfg DBConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

type Executor struct {
	DB *sql.DB
	// Timeout bounds each statement. Zero leaves it to the store.
	Timeout time.Duration
	// Normalize converts scanned values; nil uses query.NormalizeValue.
	Normalize query.NormalizeFunc
}

func NewExecutor(db *sql.DB, timeout time.Duration) *Executor {
	return &Executor{DB: db, Timeout: timeout}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}
	if e.DB == nil {
		return query.Result{}, fmt.Errorf("store is not configured")
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.DB.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result, err := query.ScanRows(rows, e.Normalize)
	if err != nil {
		return query.Result{}, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (e *Executor) Ping(ctx context.Context) error {
	if e.DB == nil {
		return fmt.Errorf("store is not configured")
	}
	return e.DB.PingContext(ctx)
}
