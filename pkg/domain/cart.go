package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a customer's mutable shopping cart. A customer has at most one
// active cart at a time; the cart engine enforces that on its write path.
// Converting the cart to an order flips Active to false.
type Cart struct {
	ID         int64
	CustomerID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Active     bool
}

// CartLine is one product entry in a cart, unique per (cart, product).
// UnitPriceSnapshot is the catalog price captured when the line was first
// added; later catalog price changes never alter it.
type CartLine struct {
	CartID            int64
	ProductID         int64
	Quantity          int
	UnitPriceSnapshot decimal.Decimal
}

// Subtotal returns quantity times the snapshot price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotal sums the subtotals of the given lines.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
