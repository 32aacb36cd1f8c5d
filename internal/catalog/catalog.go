// Package catalog describes the tables the question pipeline may query.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultTimeColumn = "payment_time"

var ErrInvalid = errors.New("catalog: invalid schema")

type Table struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
}

// Catalog is immutable once constructed and safe for concurrent use.
type Catalog struct {
	tables     []Table
	timeColumn string
}

type file struct {
	TimeColumn string  `yaml:"time_column"`
	Tables     []Table `yaml:"tables"`
}

// Default returns the kiosk sales schema.
func Default() *Catalog {
	c, _ := New(DefaultTimeColumn, []Table{
		{Name: "users", Columns: []string{"id", "name", "phone", "email"}},
		{Name: "transactions", Columns: []string{"id", "user_id", "total", "payment_time", "order_type", "seat_number", "payment_method"}},
		{Name: "order_items", Columns: []string{"id", "transaction_id", "name", "quantity", "price"}},
		{Name: "add_ons", Columns: []string{"id", "transaction_id", "name", "quantity", "price"}},
	})
	return c
}

func New(timeColumn string, tables []Table) (*Catalog, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables", ErrInvalid)
	}
	seen := make(map[string]struct{}, len(tables))
	out := make([]Table, 0, len(tables))
	for i, t := range tables {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: table %d has no name", ErrInvalid, i)
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: duplicate table %q", ErrInvalid, name)
		}
		seen[key] = struct{}{}

		cols := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			if col = strings.TrimSpace(col); col != "" {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("%w: table %q has no columns", ErrInvalid, name)
		}
		out = append(out, Table{Name: name, Columns: cols})
	}
	timeColumn = strings.TrimSpace(timeColumn)
	if timeColumn == "" {
		timeColumn = DefaultTimeColumn
	}
	return &Catalog{tables: out, timeColumn: timeColumn}, nil
}

// Load reads a YAML catalog. An empty path yields Default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return New(f.TimeColumn, f.Tables)
}

func (c *Catalog) Tables() []Table {
	out := make([]Table, len(c.tables))
	for i, t := range c.tables {
		out[i] = Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	}
	return out
}

func (c *Catalog) TimeColumn() string {
	return c.timeColumn
}

// HasTable reports whether name is a catalog table, ignoring case.
func (c *Catalog) HasTable(name string) bool {
	for _, t := range c.tables {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// Describe renders one "table(col, col)" line per table in declaration order.
func (c *Catalog) Describe() string {
	var b strings.Builder
	for i, t := range c.tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteByte('(')
		b.WriteString(strings.Join(t.Columns, ", "))
		b.WriteByte(')')
	}
	return b.String()
}
