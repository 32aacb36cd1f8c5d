// Package migrations applies the embedded kiosk sales schema for each dialect.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/novaquery/novaquery/internal/query"
)

//go:embed sql/*/*.sql
var embeddedFS embed.FS

const migrationTable = "novaquery_schema_migrations"

var migrationNamePattern = regexp.MustCompile(`^([0-9]+)_(.+)\.(up|down)\.sql$`)

// Migration is one numbered schema change with its rollback script.
type Migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// State pairs a migration with whether the store has applied it.
type State struct {
	Migration
	Applied bool
}

type Runner struct {
	dialect    query.Dialect
	migrations []Migration
}

// NewRunner loads the scripts under sql/<dialect>.
func NewRunner(dialect query.Dialect) (*Runner, error) {
	if _, err := query.ParseDialect(string(dialect)); err != nil {
		return nil, err
	}
	sub, err := fs.Sub(embeddedFS, path.Join("sql", string(dialect)))
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", dialect, err)
	}
	items, err := loadMigrations(sub)
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", dialect, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	return &Runner{dialect: dialect, migrations: items}, nil
}

// Status reports every known migration in version order.
func (r *Runner) Status(ctx context.Context, db *sql.DB) ([]State, error) {
	applied, err := r.appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	states := make([]State, 0, len(r.migrations))
	for _, m := range r.migrations {
		_, ok := applied[m.Version]
		states = append(states, State{Migration: m, Applied: ok})
	}
	return states, nil
}

// Up applies pending migrations oldest first. steps <= 0 applies all of them.
func (r *Runner) Up(ctx context.Context, db *sql.DB, steps int) (int, error) {
	pending, err := r.plan(ctx, db, false)
	if err != nil {
		return 0, err
	}
	if steps > 0 && len(pending) > steps {
		pending = pending[:steps]
	}
	mark := "INSERT INTO " + migrationTable + " (version) VALUES (" + r.dialect.Placeholder(1) + ")"
	for i, m := range pending {
		if err := r.apply(ctx, db, m.Version, m.UpSQL, mark); err != nil {
			return i, fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return len(pending), nil
}

// Down rolls back applied migrations newest first. steps <= 0 rolls back one.
func (r *Runner) Down(ctx context.Context, db *sql.DB, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	applied, err := r.plan(ctx, db, true)
	if err != nil {
		return 0, err
	}
	slices.Reverse(applied)
	if len(applied) > steps {
		applied = applied[:steps]
	}
	unmark := "DELETE FROM " + migrationTable + " WHERE version = " + r.dialect.Placeholder(1)
	for i, m := range applied {
		if err := r.apply(ctx, db, m.Version, m.DownSQL, unmark); err != nil {
			return i, fmt.Errorf("rollback migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return len(applied), nil
}

// plan returns the migrations whose applied flag equals wantApplied, in
// version order.
func (r *Runner) plan(ctx context.Context, db *sql.DB, wantApplied bool) ([]Migration, error) {
	states, err := r.Status(ctx, db)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, s := range states {
		if s.Applied == wantApplied {
			out = append(out, s.Migration)
		}
	}
	return out, nil
}

func (r *Runner) appliedVersions(ctx context.Context, db *sql.DB) (map[int64]struct{}, error) {
	create := "CREATE TABLE IF NOT EXISTS " + migrationTable +
		" (version BIGINT PRIMARY KEY, applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)"
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("ensure %s: %w", migrationTable, err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM "+migrationTable)
	if err != nil {
		return nil, fmt.Errorf("read applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := map[int64]struct{}{}
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied version: %w", err)
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

// apply runs script and the bookkeeping statement in one transaction. MySQL
// commits DDL implicitly, so a failed MySQL migration may leave earlier
// statements applied.
func (r *Runner) apply(ctx context.Context, db *sql.DB, version int64, script, bookkeeping string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		return fmt.Errorf("bookkeeping: %w", err)
	}
	return tx.Commit()
}

// splitStatements breaks a script on ";" and drops comment lines. The
// embedded scripts never put ";" inside literals.
func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			kept = append(kept, line)
		}
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// loadMigrations pairs NNN_name.up.sql with NNN_name.down.sql. Other files
// are ignored.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}

	byVersion := map[int64]*Migration{}
	for _, name := range names {
		m := migrationNamePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("version of %q: %w", name, err)
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		item, ok := byVersion[version]
		if !ok {
			item = &Migration{Version: version, Name: m[2]}
			byVersion[version] = item
		}
		if m[3] == "up" {
			item.UpSQL = string(body)
		} else {
			item.DownSQL = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, item := range byVersion {
		switch {
		case strings.TrimSpace(item.UpSQL) == "":
			return nil, fmt.Errorf("migration %d missing up SQL", item.Version)
		case strings.TrimSpace(item.DownSQL) == "":
			return nil, fmt.Errorf("migration %d missing down SQL", item.Version)
		}
		out = append(out, *item)
	}
	slices.SortFunc(out, func(a, b Migration) int { return int(a.Version - b.Version) })
	return out, nil
}
