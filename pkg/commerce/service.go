package commerce

import (
	"context"

	"github.com/marshallshelly/storefront/pkg/cache"
	"github.com/marshallshelly/storefront/pkg/domain"
)

// Service is the narrow interface consumed by the presentation layer. It
// wires the three engines over one transaction runner and optionally a
// product cache.
type Service struct {
	carts    *CartEngine
	orders   *OrderEngine
	sales    *SaleEngine
	catalog  CatalogStore
	products *cache.ProductCache
}

// NewService assembles the engines into the service facade.
func NewService(tx TxRunner, catalog CatalogStore, carts CartStore, orders OrderStore, sales SaleStore) *Service {
	return &Service{
		carts:   NewCartEngine(tx, catalog, carts),
		orders:  NewOrderEngine(tx, catalog, carts, orders),
		sales:   NewSaleEngine(tx, orders, sales),
		catalog: catalog,
	}
}

// WithProductCache enables the read-through product cache.
func (s *Service) WithProductCache(c *cache.ProductCache) *Service {
	s.products = c
	return s
}

// Carts exposes the cart engine.
func (s *Service) Carts() *CartEngine { return s.carts }

// Orders exposes the order engine.
func (s *Service) Orders() *OrderEngine { return s.orders }

// Sales exposes the sale engine.
func (s *Service) Sales() *SaleEngine { return s.sales }

// AddToCart adds quantity of a product to the customer's active cart,
// creating the cart when the customer has none.
func (s *Service) AddToCart(ctx context.Context, customerID, productID int64, quantity int) (*domain.CartLine, error) {
	cart, err := s.carts.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.carts.AddItem(ctx, cart.ID, productID, quantity)
}

// ViewCart returns the customer's active cart and its lines.
func (s *Service) ViewCart(ctx context.Context, customerID int64) (*domain.Cart, []domain.CartLine, error) {
	return s.carts.View(ctx, customerID)
}

// PlaceOrder converts the customer's active cart into a pending order.
func (s *Service) PlaceOrder(ctx context.Context, customerID int64) (*domain.Order, error) {
	cart, err := s.carts.GetActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.PlaceOrder(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	s.invalidateOrderProducts(ctx, order.ID)
	return order, nil
}

// AdvanceOrderStatus moves an order through its lifecycle.
func (s *Service) AdvanceOrderStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.AdvanceStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}
	if next == domain.StatusCancelled {
		s.invalidateOrderProducts(ctx, orderID)
	}
	return order, nil
}

// RecordSale records the sale of a completed order.
func (s *Service) RecordSale(ctx context.Context, orderID int64, method domain.PaymentMethod) (*domain.Sale, error) {
	return s.sales.RecordSale(ctx, orderID, method)
}

// GetProduct looks up a product, serving from the cache when enabled.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if s.products != nil {
		if p := s.products.Get(ctx, id); p != nil {
			return p, nil
		}
	}
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.products != nil {
		s.products.Set(ctx, p)
	}
	return p, nil
}

// invalidateOrderProducts drops cached entries for every product whose
// stock changed with the order. Cache absence makes this a no-op.
func (s *Service) invalidateOrderProducts(ctx context.Context, orderID int64) {
	if s.products == nil {
		return
	}
	_, lines, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return
	}
	for _, l := range lines {
		s.products.Invalidate(ctx, l.ProductID)
	}
}
