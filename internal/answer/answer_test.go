package answer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatEmptyResult(t *testing.T) {
	assert.Equal(t, "I couldn't find any data for that question.", Format("total revenue?", nil))
	assert.Equal(t, "I couldn't find any data for that question.", Format("anything", [][]any{}))
}

func TestFormatSingleColumn(t *testing.T) {
	cases := []struct {
		question string
		value    any
		want     string
	}{
		{"What is the total revenue?", 1500.0, "Total revenue is $1500.0."},
		{"total sales today", decimal.RequireFromString("1520.50"), "Total revenue is $1520.50."},
		{"How many customers came?", int64(12), "12 unique customers."},
		{"number of visitors", int64(3), "3 unique customers."},
		{"How many orders today?", int64(7), "7 orders."},
		{"count the payments", int64(7), "7 orders."},
		{"average order value", 12.25, "The result is 12.25."},
		{"total revenue", nil, "No data found for that question."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.question, [][]any{{tc.value}}), tc.question)
	}
}

func TestFormatBestAndLeastSelling(t *testing.T) {
	assert.Equal(t, "The best selling item is Burger with 42 orders.",
		Format("what's the best selling item?", [][]any{{"Burger", int64(42)}}))
	assert.Equal(t, "The least selling item is Burger with 5 orders.",
		Format("what's the least selling item?", [][]any{{"Burger", int64(5)}, {"Fries", int64(9)}}))
	assert.Equal(t, "The least selling item is Tea with 1 orders.",
		Format("worst popular drink", [][]any{{"Tea", int64(1)}}))
}

func TestFormatTopSpenders(t *testing.T) {
	rows := [][]any{
		{"Ana", decimal.RequireFromString("120.00")},
		{"Ben", decimal.RequireFromString("90.50")},
		{"Cy", 80.0},
		{"Di", 70.0},
		{"Ed", 60.0},
		{"Flo", 50.0},
	}
	want := "Top spending customers:\n1. Ana: $120.00\n2. Ben: $90.50\n3. Cy: $80.0\n4. Di: $70.0\n5. Ed: $60.0"
	assert.Equal(t, want, Format("top customers by spending", rows))

	assert.Equal(t, "Ana spent $120.0.", Format("which customer spent the most?", [][]any{{"Ana", 120.0}}))
}

func TestFormatSpendingBeatsSelling(t *testing.T) {
	got := Format("customers spending on best selling items", [][]any{{"Ana", 10.0}})
	assert.Equal(t, "Ana spent $10.0.", got)
}

func TestFormatOrderBreakdown(t *testing.T) {
	rows := [][]any{{"Dine In", int64(3)}, {"Take Out", int64(2)}}
	assert.Equal(t, "Order breakdown: Dine In: 3 orders, Take Out: 2 orders.", Format("orders by type", rows))
	assert.Equal(t, "Order breakdown: Dine In: 3 orders, Take Out: 2 orders.", Format("show order types", rows))
}

func TestFormatCustomerCount(t *testing.T) {
	assert.Equal(t, "4 unique customers.", Format("customer count per day", [][]any{{int64(4), "2025-07-01"}}))
}

func TestFormatGenericPairs(t *testing.T) {
	rows := [][]any{{"a", int64(1)}, {"b", int64(2)}, {"c", int64(3)}, {"d", int64(4)}, {"e", int64(5)}, {"f", int64(6)}}
	assert.Equal(t, "Results: a (1), b (2), c (3), d (4), e (5)", Format("payment methods", rows))
}

func TestFormatWideRows(t *testing.T) {
	paid := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	rows := [][]any{
		{int64(17), int64(3), "Dine In", "Cash", decimal.RequireFromString("25.00")},
		{int64(18), int64(4), "Take Out", "Card", 12.5},
	}
	assert.Equal(t, "Here's what I found: Order 17: Dine In (Cash) - $25.00, Order 18: Take Out (Card) - $12.5",
		Format("recent transactions", rows))

	tuples := [][]any{{int64(1), "Burger", int64(2)}, {int64(2), nil, paid}}
	assert.Equal(t, "Here's what I found: (1, 'Burger', 2), (2, null, '2025-07-01 09:30:00')",
		Format("items", tuples))

	fourCols := [][]any{{int64(1), int64(2), "Dine In", "Cash"}}
	assert.Equal(t, "Here's what I found: (1, 2, 'Dine In', 'Cash')", Format("transactions", fourCols))

	many := [][]any{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}, {1, 2, 3}}
	assert.Equal(t, "I found 4 records for your query.", Format("everything", many))
}

func TestFormatRaggedRowsFallBack(t *testing.T) {
	rows := [][]any{{"Dine In", int64(3)}, {"Take Out"}}
	got := Format("orders by type", rows)
	assert.Equal(t, "Here's what I found: ('Dine In', 3), ('Take Out',)", got)

	assert.NotPanics(t, func() { Format("x", [][]any{{}}) })
}

func TestRender(t *testing.T) {
	assert.Equal(t, "1500.0", Render(1500.0))
	assert.Equal(t, "0.1", Render(float32(0.1)))
	assert.Equal(t, "12.50", Render(decimal.RequireFromString("12.50")))
	assert.Equal(t, "1500", Render(decimal.New(15, 2)))
	assert.Equal(t, "null", Render(nil))
	assert.Equal(t, "abc", Render([]byte("abc")))
	assert.Equal(t, "42", Render(int64(42)))
	assert.Equal(t, "true", Render(true))
}

func TestFormatUsesExportedMessages(t *testing.T) {
	assert.Equal(t, NoRowsMessage, Format("total revenue?", nil))
	assert.Equal(t, NullValueMessage, Format("total revenue", [][]any{{nil}}))
}
