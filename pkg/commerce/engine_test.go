package commerce

import (
	"context"
	"testing"

	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store *memStore) *Service {
	return NewService(store, store, store, memOrderStore{store}, memSaleStore{store})
}

func TestAddToCartSnapshotsPrice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	service := newTestService(store)

	line, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPriceSnapshot.Equal(decimal.RequireFromString("9.99")))
}

func TestAddToCartMergesQuantityAndKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 50)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)

	// Catalog price change between adds must not touch the snapshot.
	p := store.products[1]
	p.UnitPrice = decimal.RequireFromString("12.50")
	store.products[1] = p

	line, err := service.AddToCart(ctx, 10, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.UnitPriceSnapshot.Equal(decimal.RequireFromString("9.99")),
		"merge must keep the price captured at first add")
}

func TestAddToCartRejectsBadQuantityAndUnknownProduct(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 0)
	var vErr *runtime.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = service.AddToCart(ctx, 10, 99, 1)
	assert.ErrorIs(t, err, runtime.ErrProductNotFound)
}

func TestAddToCartDoesNotTouchStock(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	service := newTestService(store)

	// The cart is soft state; even an over-stock quantity is accepted
	// here and only rejected at placement.
	_, err := service.AddToCart(ctx, 10, 1, 8)
	require.NoError(t, err)
	assert.Equal(t, 5, store.products[1].StockQuantity)

	_, err = service.PlaceOrder(ctx, 10)
	var stockErr *runtime.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, 8, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
}

func TestSetQuantityAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	service := newTestService(store)

	line, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)

	require.NoError(t, service.Carts().SetQuantity(ctx, line.CartID, 1, 4))
	_, lines, err := service.ViewCart(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)

	// Zero is rejected, removal is explicit.
	err = service.Carts().SetQuantity(ctx, line.CartID, 1, 0)
	var vErr *runtime.ValidationError
	assert.ErrorAs(t, err, &vErr)

	require.NoError(t, service.Carts().RemoveItem(ctx, line.CartID, 1))
	err = service.Carts().RemoveItem(ctx, line.CartID, 1)
	assert.ErrorIs(t, err, runtime.ErrLineNotFound)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	service := newTestService(store)

	_, err := service.PlaceOrder(ctx, 10)
	assert.ErrorIs(t, err, runtime.ErrEmptyCart)
}

func TestPlaceOrderDecrementsStockAndFreezesTotals(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	store.addProduct(2, "4.50", 10)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)
	_, err = service.AddToCart(ctx, 10, 2, 1)
	require.NoError(t, err)

	order, err := service.PlaceOrder(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("24.48")))
	assert.Equal(t, 3, store.products[1].StockQuantity)
	assert.Equal(t, 9, store.products[2].StockQuantity)

	// Cart is closed; the next AddToCart opens a fresh one.
	cart, lines, err := service.ViewCart(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.True(t, cart.Active)

	// Order lines carry the frozen snapshot prices.
	_, orderLines, err := service.Orders().GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, orderLines, 2)
	assert.True(t, domain.OrderTotal(orderLines).Equal(order.Total))
}

func TestPlaceOrderUsesSnapshotNotLivePrice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)

	// Catalog price rises before placement; the cart's frozen price wins.
	p := store.products[1]
	p.UnitPrice = decimal.RequireFromString("19.99")
	store.products[1] = p

	order, err := service.PlaceOrder(ctx, 10)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("19.98")))

	_, lines, err := service.Orders().GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("9.99")))
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	store.addProduct(2, "4.50", 1)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)
	_, err = service.AddToCart(ctx, 10, 2, 3) // exceeds stock of product 2
	require.NoError(t, err)

	_, err = service.PlaceOrder(ctx, 10)
	var stockErr *runtime.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)

	// Nothing moved: no order, no decrement, cart still open.
	assert.Equal(t, 5, store.products[1].StockQuantity)
	assert.Equal(t, 1, store.products[2].StockQuantity)
	assert.Empty(t, store.orders)
	_, lines, err := service.ViewCart(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestCancellationRestoresStock(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 10)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 3)
	require.NoError(t, err)
	order, err := service.PlaceOrder(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, store.products[1].StockQuantity)

	cancelled, err := service.AdvanceOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, store.products[1].StockQuantity)
}

func TestIllegalStatusTransitions(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 10)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 1)
	require.NoError(t, err)
	order, err := service.PlaceOrder(ctx, 10)
	require.NoError(t, err)

	// Skipping ahead is rejected.
	_, err = service.AdvanceOrderStatus(ctx, order.ID, domain.StatusCompleted)
	var trErr *runtime.StatusTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.StatusPending, trErr.From)
	assert.Equal(t, domain.StatusCompleted, trErr.To)

	for _, next := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped} {
		_, err = service.AdvanceOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
	}

	// Shipped orders cannot be cancelled, and stock stays committed.
	_, err = service.AdvanceOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, 9, store.products[1].StockQuantity)

	_, err = service.AdvanceOrderStatus(ctx, order.ID, domain.StatusCompleted)
	require.NoError(t, err)

	// Completed is terminal.
	for _, next := range []domain.OrderStatus{domain.StatusPending, domain.StatusProcessing, domain.StatusShipped, domain.StatusCancelled} {
		_, err = service.AdvanceOrderStatus(ctx, order.ID, next)
		assert.ErrorAs(t, err, &trErr, "completed -> %s must be rejected", next)
	}

	_, err = service.AdvanceOrderStatus(ctx, order.ID, domain.OrderStatus("devuelto"))
	var vErr *runtime.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRecordSaleRequiresCompletedOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 10)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 1)
	require.NoError(t, err)
	order, err := service.PlaceOrder(ctx, 10)
	require.NoError(t, err)

	_, err = service.RecordSale(ctx, order.ID, domain.PaymentCash)
	assert.ErrorIs(t, err, runtime.ErrOrderNotCompleted)

	_, err = service.RecordSale(ctx, 999, domain.PaymentCash)
	assert.ErrorIs(t, err, runtime.ErrOrderNotFound)

	_, err = service.RecordSale(ctx, order.ID, domain.PaymentMethod("cheque"))
	var vErr *runtime.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRecordSaleOncePerOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 10)
	service := newTestService(store)

	_, err := service.AddToCart(ctx, 10, 1, 2)
	require.NoError(t, err)
	order, err := service.PlaceOrder(ctx, 10)
	require.NoError(t, err)
	for _, next := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped, domain.StatusCompleted} {
		_, err = service.AdvanceOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
	}

	sale, err := service.RecordSale(ctx, order.ID, domain.PaymentCard)
	require.NoError(t, err)
	assert.True(t, sale.TotalAmount.Equal(order.Total))
	assert.Equal(t, order.CustomerID, sale.CustomerID)
	require.NotNil(t, sale.OrderID)
	assert.Equal(t, order.ID, *sale.OrderID)

	// Sale lines are verbatim copies and stock is untouched.
	assert.Equal(t, 8, store.products[1].StockQuantity)
	require.Len(t, store.saleLines[sale.ID], 1)
	assert.True(t, store.saleLines[sale.ID][0].UnitPrice.Equal(decimal.RequireFromString("9.99")))

	_, err = service.RecordSale(ctx, order.ID, domain.PaymentCard)
	assert.ErrorIs(t, err, runtime.ErrOrderAlreadySold)
	assert.Len(t, store.sales, 1)
}

func TestCheckoutScenario(t *testing.T) {
	// Customer with no cart: add 2 x 9.99 from a stock of 5, place,
	// complete, sell by card.
	ctx := context.Background()
	store := newMemStore()
	store.addProduct(1, "9.99", 5)
	service := newTestService(store)

	line, err := service.AddToCart(ctx, 7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPriceSnapshot.Equal(decimal.RequireFromString("9.99")))

	order, err := service.PlaceOrder(ctx, 7)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("19.98")))
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, 3, store.products[1].StockQuantity)

	for _, next := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped, domain.StatusCompleted} {
		order, err = service.AdvanceOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusCompleted, order.Status)

	sale, err := service.RecordSale(ctx, order.ID, domain.PaymentCard)
	require.NoError(t, err)
	assert.True(t, sale.TotalAmount.Equal(decimal.RequireFromString("19.98")))
	assert.Equal(t, domain.PaymentCard, sale.PaymentMethod)
}
