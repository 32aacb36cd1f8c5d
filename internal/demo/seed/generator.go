// Package seed fills the sales store with deterministic demo data.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID    int64
	Name  string
	Phone string
	Email string
}

type Transaction struct {
	ID            int64
	UserID        int64
	Total         decimal.Decimal
	PaymentTime   time.Time
	OrderType     string
	SeatNumber    string
	PaymentMethod string
}

// LineItem is a row of order_items or add_ons.
type LineItem struct {
	ID            int64
	TransactionID int64
	Name          string
	Quantity      int
	Price         decimal.Decimal
}

type Dataset struct {
	Users        []User
	Transactions []Transaction
	OrderItems   []LineItem
	AddOns       []LineItem
}

type menuEntry struct {
	name  string
	price decimal.Decimal
	// weight biases popularity so best and least selling items are stable.
	weight int
}

var (
	menu = []menuEntry{
		{"Burger", decimal.RequireFromString("8.50"), 30},
		{"Cheeseburger", decimal.RequireFromString("9.75"), 20},
		{"Fries", decimal.RequireFromString("3.25"), 25},
		{"Chicken Wrap", decimal.RequireFromString("7.95"), 12},
		{"Garden Salad", decimal.RequireFromString("6.50"), 5},
		{"Soda", decimal.RequireFromString("1.99"), 18},
		{"Iced Tea", decimal.RequireFromString("2.25"), 10},
		{"Milkshake", decimal.RequireFromString("4.50"), 8},
	}
	addOnMenu = []menuEntry{
		{"Extra Cheese", decimal.RequireFromString("0.75"), 5},
		{"Bacon", decimal.RequireFromString("1.50"), 3},
		{"Extra Sauce", decimal.RequireFromString("0.50"), 4},
		{"Large Size", decimal.RequireFromString("1.00"), 2},
	}
	firstNames     = []string{"Ana", "Ben", "Carla", "Dan", "Elif", "Farid", "Gia", "Hugo", "Ines", "Jon", "Kai", "Lena"}
	lastNames      = []string{"Reyes", "Okafor", "Novak", "Tanaka", "Silva", "Meyer", "Khan", "Larsen"}
	orderTypes     = []string{"Dine In", "Take Out", "Pick Up"}
	paymentMethods = []string{"Cash", "Card", "E-Wallet"}
)

type Generator struct {
	rnd    *rand.Rand
	window time.Duration
	now    func() time.Time
}

func NewGenerator(seed int64, window time.Duration) *Generator {
	return &Generator{
		rnd:    rand.New(rand.NewSource(seed)),
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds users and transactions with their line items. Transaction
// totals always equal the sum of their items and add-ons.
func (g *Generator) Generate(users, transactions int) Dataset {
	now := g.now().Truncate(time.Second)
	ds := Dataset{}
	for i := 1; i <= users; i++ {
		first := pickOne(g.rnd, firstNames)
		last := pickOne(g.rnd, lastNames)
		ds.Users = append(ds.Users, User{
			ID:    int64(i),
			Name:  first + " " + last,
			Phone: fmt.Sprintf("+1-555-%04d", g.rnd.Intn(10000)),
			Email: fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
		})
	}

	for i := 1; i <= transactions; i++ {
		tx := Transaction{
			ID:            int64(i),
			UserID:        int64(g.rnd.Intn(users) + 1),
			PaymentTime:   now.Add(-time.Duration(g.rnd.Int63n(int64(g.window)))).Truncate(time.Second),
			OrderType:     pickOne(g.rnd, orderTypes),
			PaymentMethod: pickOne(g.rnd, paymentMethods),
		}
		if tx.OrderType == "Dine In" {
			tx.SeatNumber = fmt.Sprintf("%c%d", 'A'+rune(g.rnd.Intn(4)), g.rnd.Intn(5)+1)
		}

		total := decimal.Zero
		for n := g.rnd.Intn(3) + 1; n > 0; n-- {
			item := g.line(&ds.OrderItems, tx.ID, menu, 3)
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if g.rnd.Intn(100) < 35 {
			addOn := g.line(&ds.AddOns, tx.ID, addOnMenu, 2)
			total = total.Add(addOn.Price.Mul(decimal.NewFromInt(int64(addOn.Quantity))))
		}
		tx.Total = total
		ds.Transactions = append(ds.Transactions, tx)
	}
	return ds
}

func (g *Generator) line(dst *[]LineItem, transactionID int64, entries []menuEntry, maxQty int) LineItem {
	entry := pickWeighted(g.rnd, entries)
	item := LineItem{
		ID:            int64(len(*dst) + 1),
		TransactionID: transactionID,
		Name:          entry.name,
		Quantity:      g.rnd.Intn(maxQty) + 1,
		Price:         entry.price,
	}
	*dst = append(*dst, item)
	return item
}

func pickWeighted(r *rand.Rand, entries []menuEntry) menuEntry {
	total := 0
	for _, e := range entries {
		total += e.weight
	}
	p := r.Intn(total)
	for _, e := range entries {
		if p < e.weight {
			return e
		}
		p -= e.weight
	}
	return entries[len(entries)-1]
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
