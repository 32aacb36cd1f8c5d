package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaquery/novaquery/internal/query"
)

func TestRulesCoverAllPhrasesInOrder(t *testing.T) {
	for _, d := range []query.Dialect{query.MySQL, query.Postgres, query.DuckDB} {
		var phrases []string
		for _, r := range Rules(d) {
			phrases = append(phrases, r.Phrase)
		}
		assert.Equal(t, []string{"today", "yesterday", "this week", "this month", "last month"}, phrases, d)
	}
}

func TestResolveMySQL(t *testing.T) {
	preds := Resolve("What was revenue last month compared to this month?", "payment_time", query.MySQL)
	require.Len(t, preds, 2)
	assert.Equal(t, "this month", preds[0].Phrase)
	assert.Equal(t, "MONTH(payment_time) = MONTH(CURDATE()) AND YEAR(payment_time) = YEAR(CURDATE())", preds[0].SQL)
	assert.Equal(t, "last month", preds[1].Phrase)
	assert.Equal(t,
		"MONTH(payment_time) = MONTH(DATE_SUB(CURDATE(), INTERVAL 1 MONTH)) AND YEAR(payment_time) = YEAR(DATE_SUB(CURDATE(), INTERVAL 1 MONTH))",
		preds[1].SQL)
}

func TestResolveLastMonthIsCalendarMonthNotRollingWindow(t *testing.T) {
	for _, d := range []query.Dialect{query.MySQL, query.Postgres, query.DuckDB} {
		preds := Resolve("sales last month", "payment_time", d)
		require.Len(t, preds, 1)
		assert.NotContains(t, preds[0].SQL, "BETWEEN")
		assert.NotContains(t, preds[0].SQL, ">=")
		assert.Contains(t, preds[0].SQL, "MONTH")
		assert.Contains(t, preds[0].SQL, "YEAR")
	}
}

func TestResolvePostgresAndDuckDBShareForms(t *testing.T) {
	pg := Resolve("orders yesterday", "created_at", query.Postgres)
	duck := Resolve("orders yesterday", "created_at", query.DuckDB)
	require.Len(t, pg, 1)
	assert.Equal(t, pg, duck)
	assert.Equal(t, "CAST(created_at AS DATE) = CURRENT_DATE - INTERVAL '1 day'", pg[0].SQL)
}

func TestResolveIgnoresEmbeddedWords(t *testing.T) {
	assert.Empty(t, Resolve("show todays specials", "payment_time", query.MySQL))
	assert.Len(t, Resolve("sales this   week", "payment_time", query.MySQL), 1)
	assert.Empty(t, Resolve("best selling item", "payment_time", query.MySQL))
}

func TestMissing(t *testing.T) {
	preds := Resolve("revenue today", "payment_time", query.MySQL)
	require.Len(t, preds, 1)

	assert.Empty(t, Missing("SELECT SUM(t.total) FROM transactions t WHERE date(t.payment_time)=CURDATE( )", preds))
	assert.Empty(t, Missing("SELECT SUM(total) FROM transactions WHERE DATE(payment_time) = CURDATE()", preds))

	missing := Missing("SELECT SUM(total) FROM transactions WHERE payment_time >= NOW() - INTERVAL 1 DAY", preds)
	assert.Equal(t, preds, missing)
}
