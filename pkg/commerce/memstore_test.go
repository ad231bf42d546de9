package commerce

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory implementation of every store interface plus
// TxRunner, with rollback-on-error semantics so the atomicity of the
// engines can be asserted without a database.
type memStore struct {
	products   map[int64]domain.Product
	carts      map[int64]domain.Cart
	cartLines  map[int64]map[int64]domain.CartLine
	orders     map[int64]domain.Order
	orderLines map[int64][]domain.OrderLine
	sales      map[int64]domain.Sale
	saleLines  map[int64][]domain.SaleLine

	nextCartID  int64
	nextOrderID int64
	nextSaleID  int64
}

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[int64]domain.Product),
		carts:      make(map[int64]domain.Cart),
		cartLines:  make(map[int64]map[int64]domain.CartLine),
		orders:     make(map[int64]domain.Order),
		orderLines: make(map[int64][]domain.OrderLine),
		sales:      make(map[int64]domain.Sale),
		saleLines:  make(map[int64][]domain.SaleLine),
	}
}

func (m *memStore) addProduct(id int64, price string, stock int) {
	m.products[id] = domain.Product{
		ID:            id,
		Name:          "producto",
		UnitPrice:     decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

func (m *memStore) snapshot() *memStore {
	c := newMemStore()
	c.nextCartID, c.nextOrderID, c.nextSaleID = m.nextCartID, m.nextOrderID, m.nextSaleID
	for k, v := range m.products {
		c.products[k] = v
	}
	for k, v := range m.carts {
		c.carts[k] = v
	}
	for k, v := range m.cartLines {
		inner := make(map[int64]domain.CartLine, len(v))
		for pk, pv := range v {
			inner[pk] = pv
		}
		c.cartLines[k] = inner
	}
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.orderLines {
		c.orderLines[k] = append([]domain.OrderLine(nil), v...)
	}
	for k, v := range m.sales {
		c.sales[k] = v
	}
	for k, v := range m.saleLines {
		c.saleLines[k] = append([]domain.SaleLine(nil), v...)
	}
	return c
}

func (m *memStore) restore(from *memStore) {
	m.products = from.products
	m.carts = from.carts
	m.cartLines = from.cartLines
	m.orders = from.orders
	m.orderLines = from.orderLines
	m.sales = from.sales
	m.saleLines = from.saleLines
	m.nextCartID, m.nextOrderID, m.nextSaleID = from.nextCartID, from.nextOrderID, from.nextSaleID
}

// InSerializableTx implements TxRunner. A failing fn leaves the store in
// its pre-attempt state.
func (m *memStore) InSerializableTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	before := m.snapshot()
	if err := fn(nil); err != nil {
		m.restore(before)
		return err
	}
	return nil
}

// CatalogStore

func (m *memStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, runtime.ErrProductNotFound
	}
	return &p, nil
}

func (m *memStore) GetProductForUpdate(ctx context.Context, q runtime.Querier, id int64) (*domain.Product, error) {
	return m.GetProduct(ctx, id)
}

func (m *memStore) GetUnitPrice(ctx context.Context, id int64) (decimal.Decimal, error) {
	p, ok := m.products[id]
	if !ok {
		return decimal.Zero, runtime.ErrProductNotFound
	}
	return p.UnitPrice, nil
}

func (m *memStore) AdjustStock(ctx context.Context, q runtime.Querier, id int64, delta int) (int, error) {
	p, ok := m.products[id]
	if !ok {
		return 0, runtime.ErrProductNotFound
	}
	if p.StockQuantity+delta < 0 {
		return 0, &runtime.InsufficientStockError{ProductID: id, Requested: -delta, Available: p.StockQuantity}
	}
	p.StockQuantity += delta
	m.products[id] = p
	return p.StockQuantity, nil
}

// CartStore

func (m *memStore) GetActiveCart(ctx context.Context, customerID int64) (*domain.Cart, error) {
	for _, c := range m.carts {
		if c.Active && c.CustomerID != nil && *c.CustomerID == customerID {
			cart := c
			return &cart, nil
		}
	}
	m.nextCartID++
	now := time.Now().UTC()
	cart := domain.Cart{ID: m.nextCartID, CustomerID: &customerID, CreatedAt: now, UpdatedAt: now, Active: true}
	m.carts[cart.ID] = cart
	m.cartLines[cart.ID] = make(map[int64]domain.CartLine)
	return &cart, nil
}

func (m *memStore) GetCart(ctx context.Context, q runtime.Querier, id int64) (*domain.Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, runtime.ErrCartNotFound
	}
	return &c, nil
}

func (m *memStore) GetLines(ctx context.Context, q runtime.Querier, cartID int64) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, len(m.cartLines[cartID]))
	for _, l := range m.cartLines[cartID] {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (m *memStore) UpsertLine(ctx context.Context, q runtime.Querier, cartID, productID int64, quantity int, snap decimal.Decimal) (*domain.CartLine, error) {
	if _, ok := m.carts[cartID]; !ok {
		return nil, runtime.ErrCartNotFound
	}
	lines := m.cartLines[cartID]
	line, ok := lines[productID]
	if ok {
		line.Quantity += quantity
	} else {
		line = domain.CartLine{CartID: cartID, ProductID: productID, Quantity: quantity, UnitPriceSnapshot: snap}
	}
	lines[productID] = line
	m.touch(cartID)
	return &line, nil
}

func (m *memStore) SetLineQuantity(ctx context.Context, q runtime.Querier, cartID, productID int64, quantity int) error {
	lines, ok := m.cartLines[cartID]
	if !ok {
		return runtime.ErrLineNotFound
	}
	line, ok := lines[productID]
	if !ok {
		return runtime.ErrLineNotFound
	}
	line.Quantity = quantity
	lines[productID] = line
	m.touch(cartID)
	return nil
}

func (m *memStore) RemoveLine(ctx context.Context, q runtime.Querier, cartID, productID int64) error {
	lines, ok := m.cartLines[cartID]
	if !ok {
		return runtime.ErrLineNotFound
	}
	if _, ok := lines[productID]; !ok {
		return runtime.ErrLineNotFound
	}
	delete(lines, productID)
	m.touch(cartID)
	return nil
}

func (m *memStore) Deactivate(ctx context.Context, q runtime.Querier, cartID int64) error {
	c, ok := m.carts[cartID]
	if !ok {
		return runtime.ErrCartNotFound
	}
	c.Active = false
	m.carts[cartID] = c
	return nil
}

func (m *memStore) touch(cartID int64) {
	if c, ok := m.carts[cartID]; ok {
		c.UpdatedAt = time.Now().UTC()
		m.carts[cartID] = c
	}
}

// memOrderStore adapts memStore to the OrderStore interface; a separate
// type is needed because CartStore and OrderStore both declare GetLines
// with different line types.
type memOrderStore struct {
	*memStore
}

func (m memOrderStore) InsertOrder(ctx context.Context, q runtime.Querier, o domain.Order) (*domain.Order, error) {
	m.nextOrderID++
	o.ID = m.nextOrderID
	o.PlacedAt = time.Now().UTC()
	m.orders[o.ID] = o
	return &o, nil
}

func (m memOrderStore) InsertLines(ctx context.Context, q runtime.Querier, lines []domain.OrderLine) error {
	for _, l := range lines {
		m.orderLines[l.OrderID] = append(m.orderLines[l.OrderID], l)
	}
	return nil
}

func (m memOrderStore) GetOrder(ctx context.Context, q runtime.Querier, id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, runtime.ErrOrderNotFound
	}
	return &o, nil
}

func (m memOrderStore) GetOrderForUpdate(ctx context.Context, q runtime.Querier, id int64) (*domain.Order, error) {
	return m.GetOrder(ctx, q, id)
}

func (m memOrderStore) GetLines(ctx context.Context, q runtime.Querier, orderID int64) ([]domain.OrderLine, error) {
	return append([]domain.OrderLine(nil), m.orderLines[orderID]...), nil
}

func (m memOrderStore) UpdateStatus(ctx context.Context, q runtime.Querier, id int64, status domain.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return runtime.ErrOrderNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

// memSaleStore adapts memStore to the SaleStore interface for the same
// reason: OrderStore and SaleStore both declare InsertLines.
type memSaleStore struct {
	*memStore
}

func (m memSaleStore) SaleExistsForOrder(ctx context.Context, q runtime.Querier, orderID int64) (bool, error) {
	for _, s := range m.sales {
		if s.OrderID != nil && *s.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (m memSaleStore) InsertSale(ctx context.Context, q runtime.Querier, v domain.Sale) (*domain.Sale, error) {
	if v.OrderID != nil {
		if sold, _ := m.SaleExistsForOrder(ctx, q, *v.OrderID); sold {
			return nil, runtime.ErrOrderAlreadySold
		}
	}
	m.nextSaleID++
	v.ID = m.nextSaleID
	v.SoldAt = time.Now().UTC()
	m.sales[v.ID] = v
	return &v, nil
}

func (m memSaleStore) InsertLines(ctx context.Context, q runtime.Querier, lines []domain.SaleLine) error {
	for _, l := range lines {
		m.saleLines[l.SaleID] = append(m.saleLines[l.SaleID], l)
	}
	return nil
}
