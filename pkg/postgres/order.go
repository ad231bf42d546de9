package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// OrderStore persists orders and their frozen lines.
type OrderStore struct {
	db *runtime.DB
}

// NewOrderStore creates an OrderStore.
func NewOrderStore(db *runtime.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, id_cliente, fecha, total, estatus`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &o.Total, &o.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runtime.ErrOrderNotFound
		}
		return nil, err
	}
	o.PlacedAt = o.PlacedAt.UTC()
	return &o, nil
}

// InsertOrder creates the order row with its total and pending status,
// inside the caller's placement transaction.
func (s *OrderStore) InsertOrder(ctx context.Context, q runtime.Querier, o domain.Order) (*domain.Order, error) {
	return scanOrder(q.QueryRow(ctx, `
		INSERT INTO pedido (id_cliente, total, estatus)
		VALUES ($1, $2, $3)
		RETURNING `+orderColumns, o.CustomerID, o.Total, o.Status))
}

// InsertLines writes the frozen order lines inside the caller's
// placement transaction.
func (s *OrderStore) InsertLines(ctx context.Context, q runtime.Querier, lines []domain.OrderLine) error {
	for _, l := range lines {
		_, err := q.Exec(ctx, `
			INSERT INTO detalle_pedido (id_pedido, id_producto, cantidad, precio_unitario, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetOrder loads an order by id.
func (s *OrderStore) GetOrder(ctx context.Context, q runtime.Querier, id int64) (*domain.Order, error) {
	return scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM pedido WHERE id = $1`, id))
}

// GetOrderForUpdate loads an order taking a row lock, for status
// transitions and sale recording.
func (s *OrderStore) GetOrderForUpdate(ctx context.Context, q runtime.Querier, id int64) (*domain.Order, error) {
	return scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM pedido WHERE id = $1 FOR UPDATE`, id))
}

// GetLines returns the lines of an order.
func (s *OrderStore) GetLines(ctx context.Context, q runtime.Querier, orderID int64) ([]domain.OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id_pedido, id_producto, cantidad, precio_unitario, subtotal
		FROM detalle_pedido
		WHERE id_pedido = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpdateStatus writes the new status inside the caller's transaction.
// The transition itself is validated by the order engine beforehand.
func (s *OrderStore) UpdateStatus(ctx context.Context, q runtime.Querier, id int64, status domain.OrderStatus) error {
	tag, err := q.Exec(ctx, `UPDATE pedido SET estatus = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return runtime.ErrOrderNotFound
	}
	return nil
}

// ListOrdersByCustomer returns a customer's orders, newest first.
func (s *OrderStore) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+` FROM pedido
		WHERE id_cliente = $1
		ORDER BY fecha DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 16)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &o.Total, &o.Status); err != nil {
			return nil, err
		}
		o.PlacedAt = o.PlacedAt.UTC()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// DeleteOrder removes an order, cascading to its lines and clearing the
// weak reference on a sale that points at it, all in one transaction.
// The sale itself is preserved as historical data.
func (s *OrderStore) DeleteOrder(ctx context.Context, id int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE venta SET id_pedido = NULL WHERE id_pedido = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM detalle_pedido WHERE id_pedido = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM pedido WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrOrderNotFound
		}
		return nil
	})
}
