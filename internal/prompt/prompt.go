// Package prompt assembles the instruction text sent to the generative backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/novaquery/novaquery/internal/catalog"
	"github.com/novaquery/novaquery/internal/query"
	"github.com/novaquery/novaquery/internal/temporal"
)

// Prompt is built per request and never mutated afterwards.
type Prompt struct {
	Text string
	// Filters are the date predicates resolved from the question. The generated
	// SQL is expected to contain each of them verbatim.
	Filters []temporal.Predicate
}

func Build(question string, schema *catalog.Catalog, dialect query.Dialect) Prompt {
	if dialect == "" {
		dialect = query.MySQL
	}
	column := schema.TimeColumn()
	filters := temporal.Resolve(question, column, dialect)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s SQL expert. Generate ONLY the SQL query, no explanations.\n\n", engineName(dialect))
	b.WriteString("Given the following database schema:\n")
	b.WriteString(schema.Describe())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Question: \"\"\"%s\"\"\"\n\n", question)

	b.WriteString("AGGREGATION RULES:\n")
	b.WriteString("- Revenue: SUM(t.total) from the transactions table\n")
	b.WriteString("- Item sales: SUM(quantity) with GROUP BY name; ORDER BY total DESC for best selling, ASC for least selling\n")
	b.WriteString("- Unique customers: COUNT(DISTINCT user_id)\n")
	b.WriteString("- Averages such as average order value: AVG(t.total)\n")
	b.WriteString("- Order counts: COUNT(DISTINCT t.id) or COUNT(*)\n")
	b.WriteString("- Order types: SELECT t.order_type, COUNT(*) AS count FROM transactions t ... GROUP BY t.order_type\n\n")

	b.WriteString("SQL RULES:\n")
	b.WriteString("- Always use table aliases when joining (e.g., FROM transactions t JOIN users u)\n")
	b.WriteString("- Qualify ambiguous columns with the table alias (e.g., t.id, u.name)\n")
	b.WriteString("- Use simple, direct queries only; NEVER use subqueries\n")
	b.WriteString("- NEVER use semicolons (;)\n")
	b.WriteString("- NEVER use multiple SQL statements\n")
	b.WriteString("- NEVER use WITH clauses or CTEs\n\n")

	b.WriteString("DATE RULES:\n")
	for _, rule := range temporal.Rules(dialect) {
		fmt.Fprintf(&b, "- For %q: %s\n", rule.Phrase, rule.Render(column))
	}
	b.WriteString("- \"Last month\" means ONLY the previous calendar month, never the last 30 days\n")
	b.WriteString("- NEVER use a rolling window or BETWEEN for \"last month\" queries\n")

	if len(filters) > 0 {
		b.WriteString("\nResolved date filters for this question (include each one exactly as written):\n")
		for _, f := range filters {
			fmt.Fprintf(&b, "- %s: %s\n", f.Phrase, f.SQL)
		}
	}

	b.WriteString("\nOnly return the SQL query, nothing else.\n")
	return Prompt{Text: b.String(), Filters: filters}
}

func engineName(dialect query.Dialect) string {
	switch dialect {
	case query.Postgres:
		return "PostgreSQL"
	case query.DuckDB:
		return "DuckDB"
	default:
		return "MySQL"
	}
}
