package answer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Render prints a single value the way a sales operator reads it: floats
// always carry a fractional part, decimals keep their stored scale and NULL
// is "null".
func Render(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	case decimal.Decimal:
		if exp := v.Exponent(); exp < 0 {
			return v.StringFixed(-exp)
		}
		return v.String()
	case float64:
		return renderFloat(v, 64)
	case float32:
		return renderFloat(float64(v), 32)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func renderFloat(v float64, bits int) string {
	s := strconv.FormatFloat(v, 'f', -1, bits)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// renderTuple prints a row as "(1, 'Burger', 2.5)".
func renderTuple(row []any) string {
	parts := make([]string, len(row))
	for i, value := range row {
		switch v := value.(type) {
		case string:
			parts[i] = "'" + v + "'"
		case []byte:
			parts[i] = "'" + string(v) + "'"
		case time.Time:
			parts[i] = "'" + Render(v) + "'"
		default:
			parts[i] = Render(v)
		}
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
