package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the closed set of accepted payment tags. The engine
// records the tag only; gateway integration is out of scope.
type PaymentMethod string

// Accepted payment methods.
const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentCard     PaymentMethod = "tarjeta"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentOther    PaymentMethod = "otro"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

// Sale is the historical record of a completed order. OrderID is a weak
// reference: deleting the order preserves the sale and clears the pointer.
// At most one sale exists per order.
type Sale struct {
	ID            int64
	OrderID       *int64
	CustomerID    int64
	SoldAt        time.Time
	TotalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
}

// SaleLine is a verbatim copy of an order line at sale time.
type SaleLine struct {
	SaleID    int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewSaleLine copies an order line into a sale line.
func NewSaleLine(saleID int64, ol OrderLine) SaleLine {
	return SaleLine{
		SaleID:    saleID,
		ProductID: ol.ProductID,
		Quantity:  ol.Quantity,
		UnitPrice: ol.UnitPrice,
		Subtotal:  ol.Subtotal,
	}
}

// SaleTotal sums the subtotals of the given lines.
func SaleTotal(lines []SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total
}
