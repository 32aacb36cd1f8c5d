package query

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeFunc converts a scanned driver value into a formatter-friendly
// scalar. databaseType is the column's DatabaseTypeName.
type NormalizeFunc func(value any, databaseType string) any

// NormalizeValue keeps DECIMAL/NUMERIC precision as decimal.Decimal and turns
// byte slices into strings.
func NormalizeValue(value any, databaseType string) any {
	numeric := isNumericType(databaseType)
	switch typed := value.(type) {
	case []byte:
		if numeric {
			if d, err := decimal.NewFromString(string(typed)); err == nil {
				return d
			}
		}
		return string(typed)
	case string:
		if numeric {
			if d, err := decimal.NewFromString(typed); err == nil {
				return d
			}
		}
		return typed
	default:
		return typed
	}
}

func isNumericType(databaseType string) bool {
	upper := strings.ToUpper(databaseType)
	return strings.HasPrefix(upper, "DECIMAL") ||
		strings.HasPrefix(upper, "NUMERIC") ||
		strings.HasPrefix(upper, "NEWDECIMAL")
}

// ScanRows drains rows into a Result. A nil normalize uses NormalizeValue.
func ScanRows(rows *sql.Rows, normalize NormalizeFunc) (Result, error) {
	if normalize == nil {
		normalize = NormalizeValue
	}
	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}
	types := make([]string, len(columns))
	if columnTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range columnTypes {
			if i < len(types) {
				types[i] = ct.DatabaseTypeName()
			}
		}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		for i, value := range values {
			values[i] = normalize(value, types[i])
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return Result{Columns: columns, Rows: resultRows}, nil
}
