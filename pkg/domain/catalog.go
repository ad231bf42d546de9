// Package domain defines the entities of the retail system: catalog,
// customers, carts, orders and sales, together with the closed enums and
// the order status transition table.
package domain

import (
	"github.com/shopspring/decimal"
)

// Category groups products. Its name is unique across the catalog.
type Category struct {
	ID   int64
	Name string
}

// Supplier is a product provider. Email, when present, is unique.
type Supplier struct {
	ID      int64
	Name    string
	Phone   *string
	Address *string
	Email   *string
}

// Product is a catalog entry. UnitPrice is always strictly positive and
// StockQuantity never goes below zero; the stores enforce both.
//
// CategoryID and SupplierID are weak references: deleting the referenced
// category or supplier nulls them out, it never deletes the product.
type Product struct {
	ID            int64
	Name          string
	Description   *string
	UnitPrice     decimal.Decimal
	StockQuantity int
	CategoryID    *int64
	SupplierID    *int64
}

// InStock reports whether the product can cover the requested quantity.
func (p Product) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}
