package commerce

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// CartEngine manages a customer's single active cart and its lines. The
// cart is soft state: no stock is reserved until order placement.
type CartEngine struct {
	tx      TxRunner
	catalog CatalogStore
	carts   CartStore
}

// NewCartEngine creates a CartEngine.
func NewCartEngine(tx TxRunner, catalog CatalogStore, carts CartStore) *CartEngine {
	return &CartEngine{tx: tx, catalog: catalog, carts: carts}
}

// GetActiveCart returns the customer's open cart, creating one if none
// exists.
func (e *CartEngine) GetActiveCart(ctx context.Context, customerID int64) (*domain.Cart, error) {
	return e.carts.GetActiveCart(ctx, customerID)
}

// AddItem adds quantity of a product to the cart. A new line snapshots
// the current catalog price; an existing line merges the quantity and
// keeps its original snapshot.
func (e *CartEngine) AddItem(ctx context.Context, cartID, productID int64, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, runtime.Validationf("cantidad", "quantity must be at least 1, got %d", quantity)
	}

	var line *domain.CartLine
	err := e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		cart, err := e.carts.GetCart(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if !cart.Active {
			return runtime.Validationf("carrito", "cart %d is no longer active", cartID)
		}

		product, err := e.catalog.GetProductForUpdate(ctx, tx, productID)
		if err != nil {
			return err
		}

		line, err = e.carts.UpsertLine(ctx, tx, cartID, productID, quantity, product.UnitPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// SetQuantity overwrites a line's quantity. Zero is rejected; removing a
// line is an explicit RemoveItem call.
func (e *CartEngine) SetQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	if quantity < 1 {
		return runtime.Validationf("cantidad", "quantity must be at least 1, got %d; use RemoveItem to drop the line", quantity)
	}
	return e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		return e.carts.SetLineQuantity(ctx, tx, cartID, productID, quantity)
	})
}

// RemoveItem deletes a line from the cart.
func (e *CartEngine) RemoveItem(ctx context.Context, cartID, productID int64) error {
	return e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		return e.carts.RemoveLine(ctx, tx, cartID, productID)
	})
}

// View returns the customer's active cart together with its lines.
func (e *CartEngine) View(ctx context.Context, customerID int64) (*domain.Cart, []domain.CartLine, error) {
	cart, err := e.carts.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	var lines []domain.CartLine
	err = e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		lines, err = e.carts.GetLines(ctx, tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return cart, lines, nil
}
