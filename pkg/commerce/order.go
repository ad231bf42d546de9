package commerce

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// OrderEngine converts carts into immutable orders and drives the order
// status state machine. Stock is committed exactly once, at placement,
// and restored exactly once, at cancellation.
type OrderEngine struct {
	tx      TxRunner
	catalog CatalogStore
	carts   CartStore
	orders  OrderStore
}

// NewOrderEngine creates an OrderEngine.
func NewOrderEngine(tx TxRunner, catalog CatalogStore, carts CartStore, orders OrderStore) *OrderEngine {
	return &OrderEngine{tx: tx, catalog: catalog, carts: carts, orders: orders}
}

// PlaceOrder converts a cart into a pending order inside one atomic
// transaction: it re-validates stock per line under row locks, decrements
// stock, freezes the cart's snapshot prices into order lines, computes
// the total and deactivates the cart. Any failure rolls everything back,
// so no stock is ever left decremented without a matching order.
func (e *OrderEngine) PlaceOrder(ctx context.Context, cartID int64) (*domain.Order, error) {
	var placed *domain.Order
	err := e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		cart, err := e.carts.GetCart(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if !cart.Active {
			return runtime.Validationf("carrito", "cart %d has already been converted to an order", cartID)
		}
		if cart.CustomerID == nil {
			return runtime.Validationf("id_cliente", "cart %d has no customer", cartID)
		}

		lines, err := e.carts.GetLines(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return runtime.ErrEmptyCart
		}

		// Lock every product row and validate availability before the
		// first decrement, so the operation fails whole.
		for _, l := range lines {
			product, err := e.catalog.GetProductForUpdate(ctx, tx, l.ProductID)
			if err != nil {
				return err
			}
			if !product.InStock(l.Quantity) {
				return &runtime.InsufficientStockError{
					ProductID: l.ProductID,
					Requested: l.Quantity,
					Available: product.StockQuantity,
				}
			}
		}

		for _, l := range lines {
			if _, err := e.catalog.AdjustStock(ctx, tx, l.ProductID, -l.Quantity); err != nil {
				return err
			}
		}

		placed, err = e.orders.InsertOrder(ctx, tx, domain.Order{
			CustomerID: *cart.CustomerID,
			Total:      domain.CartTotal(lines),
			Status:     domain.StatusPending,
		})
		if err != nil {
			return err
		}

		orderLines := make([]domain.OrderLine, 0, len(lines))
		for _, l := range lines {
			orderLines = append(orderLines, domain.NewOrderLine(placed.ID, l))
		}
		if err := e.orders.InsertLines(ctx, tx, orderLines); err != nil {
			return err
		}

		return e.carts.Deactivate(ctx, tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// AdvanceStatus moves an order to the next lifecycle state. Cancelling a
// pending or processing order restores the stock of every line inside
// the same transaction; every other deviation from the forward chain is
// rejected.
func (e *OrderEngine) AdvanceStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, runtime.Validationf("estatus", "unknown order status %q", next)
	}

	var updated *domain.Order
	err := e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		order, err := e.orders.GetOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return &runtime.StatusTransitionError{OrderID: orderID, From: order.Status, To: next}
		}

		if next == domain.StatusCancelled {
			lines, err := e.orders.GetLines(ctx, tx, orderID)
			if err != nil {
				return err
			}
			for _, l := range lines {
				if _, err := e.catalog.AdjustStock(ctx, tx, l.ProductID, l.Quantity); err != nil {
					return err
				}
			}
		}

		if err := e.orders.UpdateStatus(ctx, tx, orderID, next); err != nil {
			return err
		}

		updated = order
		updated.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetOrder returns an order with its lines, verifying that the stored
// total still reconciles with the line subtotals.
func (e *OrderEngine) GetOrder(ctx context.Context, orderID int64) (*domain.Order, []domain.OrderLine, error) {
	var (
		order *domain.Order
		lines []domain.OrderLine
	)
	err := e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = e.orders.GetOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		lines, err = e.orders.GetLines(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if !order.Total.Equal(domain.OrderTotal(lines)) {
		return nil, nil, fmt.Errorf("order %d: stored total %s does not match line subtotals %s",
			orderID, order.Total, domain.OrderTotal(lines))
	}
	return order, lines, nil
}
