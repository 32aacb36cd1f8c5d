package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/novaquery/novaquery/internal/query"
)

type Counts struct {
	Users        int
	Transactions int
	OrderItems   int
	AddOns       int
}

// Loader writes a Dataset with dialect-specific placeholders.
type Loader struct {
	DB      *sql.DB
	Dialect query.Dialect
}

// Load inserts ds in one transaction, clearing the sales tables first when
// truncate is set.
func (l *Loader) Load(ctx context.Context, ds Dataset, truncate bool) (Counts, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if truncate {
		for _, table := range []string{"add_ons", "order_items", "transactions", "users"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return Counts{}, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	insertUser := l.insert("users", "id", "name", "phone", "email")
	for _, u := range ds.Users {
		if _, err := tx.ExecContext(ctx, insertUser, u.ID, u.Name, u.Phone, u.Email); err != nil {
			return Counts{}, fmt.Errorf("insert user %d: %w", u.ID, err)
		}
	}

	insertTx := l.insert("transactions", "id", "user_id", "total", "payment_time", "order_type", "seat_number", "payment_method")
	for _, t := range ds.Transactions {
		var seat any
		if t.SeatNumber != "" {
			seat = t.SeatNumber
		}
		if _, err := tx.ExecContext(ctx, insertTx, t.ID, t.UserID, l.money(t.Total), t.PaymentTime, t.OrderType, seat, t.PaymentMethod); err != nil {
			return Counts{}, fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}

	if err := l.insertLines(ctx, tx, "order_items", ds.OrderItems); err != nil {
		return Counts{}, err
	}
	if err := l.insertLines(ctx, tx, "add_ons", ds.AddOns); err != nil {
		return Counts{}, err
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("commit seed: %w", err)
	}
	return Counts{
		Users:        len(ds.Users),
		Transactions: len(ds.Transactions),
		OrderItems:   len(ds.OrderItems),
		AddOns:       len(ds.AddOns),
	}, nil
}

func (l *Loader) insertLines(ctx context.Context, tx *sql.Tx, table string, items []LineItem) error {
	stmt := l.insert(table, "id", "transaction_id", "name", "quantity", "price")
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, stmt, item.ID, item.TransactionID, item.Name, item.Quantity, l.money(item.Price)); err != nil {
			return fmt.Errorf("insert %s %d: %w", table, item.ID, err)
		}
	}
	return nil
}

func (l *Loader) insert(table string, columns ...string) string {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = l.Dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(marks, ", "))
}

// money binds DuckDB decimals as DOUBLE and lets the column cast them; the
// other drivers take the exact string form.
func (l *Loader) money(d decimal.Decimal) any {
	if l.Dialect == query.DuckDB {
		return d.InexactFloat64()
	}
	return d.StringFixed(2)
}
