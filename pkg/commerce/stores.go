// Package commerce implements the cart, order and sale engines and the
// service facade that wraps them in transactional boundaries. It owns
// every business invariant: no oversell, frozen prices, reconciled
// totals, legal status transitions, one active cart per customer and one
// sale per order.
package commerce

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
	"github.com/shopspring/decimal"
)

// TxRunner executes a function inside a serializable transaction,
// retrying transient conflicts a bounded number of times. runtime.DB is
// the production implementation.
type TxRunner interface {
	InSerializableTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CatalogStore is the catalog dependency of the engines. Methods taking
// a Querier run on the caller's transaction.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductForUpdate(ctx context.Context, q runtime.Querier, id int64) (*domain.Product, error)
	GetUnitPrice(ctx context.Context, id int64) (decimal.Decimal, error)
	AdjustStock(ctx context.Context, q runtime.Querier, id int64, delta int) (int, error)
}

// CartStore is the cart dependency of the engines.
type CartStore interface {
	GetActiveCart(ctx context.Context, customerID int64) (*domain.Cart, error)
	GetCart(ctx context.Context, q runtime.Querier, id int64) (*domain.Cart, error)
	GetLines(ctx context.Context, q runtime.Querier, cartID int64) ([]domain.CartLine, error)
	UpsertLine(ctx context.Context, q runtime.Querier, cartID, productID int64, quantity int, snapshot decimal.Decimal) (*domain.CartLine, error)
	SetLineQuantity(ctx context.Context, q runtime.Querier, cartID, productID int64, quantity int) error
	RemoveLine(ctx context.Context, q runtime.Querier, cartID, productID int64) error
	Deactivate(ctx context.Context, q runtime.Querier, cartID int64) error
}

// OrderStore is the order dependency of the engines.
type OrderStore interface {
	InsertOrder(ctx context.Context, q runtime.Querier, o domain.Order) (*domain.Order, error)
	InsertLines(ctx context.Context, q runtime.Querier, lines []domain.OrderLine) error
	GetOrder(ctx context.Context, q runtime.Querier, id int64) (*domain.Order, error)
	GetOrderForUpdate(ctx context.Context, q runtime.Querier, id int64) (*domain.Order, error)
	GetLines(ctx context.Context, q runtime.Querier, orderID int64) ([]domain.OrderLine, error)
	UpdateStatus(ctx context.Context, q runtime.Querier, id int64, status domain.OrderStatus) error
}

// SaleStore is the sale dependency of the engines.
type SaleStore interface {
	SaleExistsForOrder(ctx context.Context, q runtime.Querier, orderID int64) (bool, error)
	InsertSale(ctx context.Context, q runtime.Querier, v domain.Sale) (*domain.Sale, error)
	InsertLines(ctx context.Context, q runtime.Querier, lines []domain.SaleLine) error
}
