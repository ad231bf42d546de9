package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

// Order lifecycle states. The legal transitions form a forward chain
// pending → processing → shipped → completed, with cancellation allowed
// only from pending and processing.
const (
	StatusPending    OrderStatus = "pendiente"
	StatusProcessing OrderStatus = "procesando"
	StatusShipped    OrderStatus = "enviado"
	StatusCompleted  OrderStatus = "completado"
	StatusCancelled  OrderStatus = "cancelado"
)

// orderTransitions is the explicit transition table. A status not present
// here (completed, cancelled) is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusCompleted},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is legal.
// Backward transitions are never allowed; the only exits from the forward
// chain are the two cancellation edges.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Order is an immutable snapshot of a cart at placement time. Only Status
// may change after creation, and Total always equals the sum of its line
// subtotals.
type Order struct {
	ID         int64
	CustomerID int64
	PlacedAt   time.Time
	Total      decimal.Decimal
	Status     OrderStatus
}

// OrderLine is one frozen product entry of an order. UnitPrice is the
// cart's snapshot price, not the catalog price at placement time.
type OrderLine struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewOrderLine builds a line from a cart line, computing the subtotal.
func NewOrderLine(orderID int64, cl CartLine) OrderLine {
	return OrderLine{
		OrderID:   orderID,
		ProductID: cl.ProductID,
		Quantity:  cl.Quantity,
		UnitPrice: cl.UnitPriceSnapshot,
		Subtotal:  cl.Subtotal(),
	}
}

// OrderTotal sums the subtotals of the given lines.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total
}
