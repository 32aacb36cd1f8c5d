// Package answer turns query rows into a short natural-language sentence.
package answer

import (
	"fmt"
	"strings"
)

const (
	NoRowsMessage    = "I couldn't find any data for that question."
	NullValueMessage = "No data found for that question."
)

type shape int

const (
	singleColumn shape = iota + 1
	twoColumns
	wideColumns
)

// rule renders rows when the question and result shape both match.
type rule struct {
	name   string
	shape  shape
	match  func(q question) bool
	render func(rows [][]any) string
}

type question string

func (q question) has(words ...string) bool {
	for _, w := range words {
		if strings.Contains(string(q), w) {
			return true
		}
	}
	return false
}

func always(question) bool { return true }

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{name: "scalar-null", shape: singleColumn, match: always, render: renderScalarNull},
	{name: "scalar-revenue", shape: singleColumn, match: func(q question) bool { return q.has("revenue", "sales", "earnings") }, render: scalar("Total revenue is $%s.")},
	{name: "scalar-customers", shape: singleColumn, match: func(q question) bool { return q.has("customers", "visitors") }, render: scalar("%s unique customers.")},
	{name: "scalar-orders", shape: singleColumn, match: func(q question) bool { return q.has("orders", "count") }, render: scalar("%s orders.")},
	{name: "scalar", shape: singleColumn, match: always, render: scalar("The result is %s.")},

	{name: "top-spenders", shape: twoColumns, match: func(q question) bool { return q.has("spending", "customers") }, render: renderSpenders},
	{name: "least-selling", shape: twoColumns, match: func(q question) bool { return q.has("selling", "popular") && q.has("least", "worst") }, render: renderSelling("least")},
	{name: "best-selling", shape: twoColumns, match: func(q question) bool { return q.has("selling", "popular") }, render: renderSelling("best")},
	{name: "order-breakdown", shape: twoColumns, match: func(q question) bool { return q.has("orders", "types") }, render: renderBreakdown},
	{name: "customer-count", shape: twoColumns, match: func(q question) bool { return q.has("customer") && q.has("count") }, render: renderCustomerCount},
	{name: "customer-spent", shape: twoColumns, match: func(q question) bool { return q.has("customer") && q.has("spent", "spending") }, render: renderSpenders},
	{name: "pairs", shape: twoColumns, match: always, render: renderPairs},

	{name: "records", shape: wideColumns, match: always, render: renderRecords},
}

// Format picks the first rule whose shape and question keywords match. Shape
// is taken from the first row; Format never panics on ragged rows.
func Format(q string, rows [][]any) string {
	if len(rows) == 0 {
		return NoRowsMessage
	}
	s := shapeOf(rows[0])
	lower := question(strings.ToLower(q))
	for _, r := range rules {
		if r.shape == s && r.match(lower) {
			if out, ok := r.apply(rows); ok {
				return out
			}
		}
	}
	return fallback(rows)
}

func (r rule) apply(rows [][]any) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	out = r.render(rows)
	return out, out != ""
}

func shapeOf(row []any) shape {
	switch len(row) {
	case 1:
		return singleColumn
	case 2:
		return twoColumns
	default:
		return wideColumns
	}
}

func renderScalarNull(rows [][]any) string {
	if rows[0][0] == nil {
		return NullValueMessage
	}
	return ""
}

func scalar(pattern string) func([][]any) string {
	return func(rows [][]any) string {
		return fmt.Sprintf(pattern, Render(rows[0][0]))
	}
}

func renderSpenders(rows [][]any) string {
	if len(rows) == 1 {
		return fmt.Sprintf("%s spent $%s.", Render(rows[0][0]), Render(rows[0][1]))
	}
	lines := make([]string, 0, 5)
	for i, row := range firstN(rows, 5) {
		lines = append(lines, fmt.Sprintf("%d. %s: $%s", i+1, Render(row[0]), Render(row[1])))
	}
	return "Top spending customers:\n" + strings.Join(lines, "\n")
}

func renderSelling(rank string) func([][]any) string {
	return func(rows [][]any) string {
		return fmt.Sprintf("The %s selling item is %s with %s orders.", rank, Render(rows[0][0]), Render(rows[0][1]))
	}
}

func renderBreakdown(rows [][]any) string {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, fmt.Sprintf("%s: %s orders", Render(row[0]), Render(row[1])))
	}
	return "Order breakdown: " + strings.Join(parts, ", ") + "."
}

func renderCustomerCount(rows [][]any) string {
	return fmt.Sprintf("%s unique customers.", Render(rows[0][0]))
}

func renderPairs(rows [][]any) string {
	parts := make([]string, 0, 5)
	for _, row := range firstN(rows, 5) {
		parts = append(parts, fmt.Sprintf("%s (%s)", Render(row[0]), Render(row[1])))
	}
	return "Results: " + strings.Join(parts, ", ")
}

func renderRecords(rows [][]any) string {
	if len(rows) > 3 {
		return fmt.Sprintf("I found %d records for your query.", len(rows))
	}
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) >= 5 {
			parts = append(parts, fmt.Sprintf("Order %s: %s (%s) - $%s", Render(row[0]), Render(row[2]), Render(row[3]), Render(row[4])))
			continue
		}
		parts = append(parts, renderTuple(row))
	}
	return "Here's what I found: " + strings.Join(parts, ", ")
}

// fallback renders rows as tuples when no rule could handle their shape.
func fallback(rows [][]any) string {
	parts := make([]string, 0, len(rows))
	for _, row := range firstN(rows, 5) {
		parts = append(parts, renderTuple(row))
	}
	return "Here's what I found: " + strings.Join(parts, ", ")
}

func firstN(rows [][]any, n int) [][]any {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
