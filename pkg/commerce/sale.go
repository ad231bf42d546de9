package commerce

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// SaleEngine converts completed orders into sale records. Stock was
// already committed at placement, so recording a sale mutates no stock.
type SaleEngine struct {
	tx     TxRunner
	orders OrderStore
	sales  SaleStore
}

// NewSaleEngine creates a SaleEngine.
func NewSaleEngine(tx TxRunner, orders OrderStore, sales SaleStore) *SaleEngine {
	return &SaleEngine{tx: tx, orders: orders, sales: sales}
}

// RecordSale creates the sale for a completed order, copying every order
// line verbatim. At most one sale may exist per order; the check and the
// insert run under the same transaction, with the unique key on the
// order reference as storage-level backstop.
func (e *SaleEngine) RecordSale(ctx context.Context, orderID int64, method domain.PaymentMethod) (*domain.Sale, error) {
	if !method.Valid() {
		return nil, runtime.Validationf("tipo_pago", "unknown payment method %q", method)
	}

	var recorded *domain.Sale
	err := e.tx.InSerializableTx(ctx, func(tx pgx.Tx) error {
		order, err := e.orders.GetOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		sold, err := e.sales.SaleExistsForOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if sold {
			return runtime.ErrOrderAlreadySold
		}

		if order.Status != domain.StatusCompleted {
			return fmt.Errorf("%w: order %d is %s", runtime.ErrOrderNotCompleted, orderID, order.Status)
		}

		lines, err := e.orders.GetLines(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.Total.Equal(domain.OrderTotal(lines)) {
			return fmt.Errorf("order %d: stored total %s does not match line subtotals %s",
				orderID, order.Total, domain.OrderTotal(lines))
		}

		recorded, err = e.sales.InsertSale(ctx, tx, domain.Sale{
			OrderID:       &order.ID,
			CustomerID:    order.CustomerID,
			TotalAmount:   order.Total,
			PaymentMethod: method,
		})
		if err != nil {
			return err
		}

		saleLines := make([]domain.SaleLine, 0, len(lines))
		for _, l := range lines {
			saleLines = append(saleLines, domain.NewSaleLine(recorded.ID, l))
		}
		return e.sales.InsertLines(ctx, tx, saleLines)
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}
