package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
	"github.com/shopspring/decimal"
)

// CartStore persists carts and their lines. Methods that participate in
// the order placement transaction take a Querier so they run on the
// caller's transaction.
type CartStore struct {
	db *runtime.DB
}

// NewCartStore creates a CartStore.
func NewCartStore(db *runtime.DB) *CartStore {
	return &CartStore{db: db}
}

const cartColumns = `id, id_cliente, fecha_creacion, fecha_ultima_actualizacion, activo`

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt, &c.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runtime.ErrCartNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// GetActiveCart returns the customer's single active cart, creating one
// when none exists. The check and the insert run in one transaction so
// two concurrent calls cannot both create a cart.
func (s *CartStore) GetActiveCart(ctx context.Context, customerID int64) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.db.InSerializableTx(ctx, func(tx pgx.Tx) error {
		found, err := scanCart(tx.QueryRow(ctx, `
			SELECT `+cartColumns+` FROM carritos
			WHERE id_cliente = $1 AND activo = true
			ORDER BY fecha_creacion DESC
			LIMIT 1
		`, customerID))
		if err == nil {
			cart = found
			return nil
		}
		if !errors.Is(err, runtime.ErrCartNotFound) {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cliente WHERE id = $1)`, customerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return runtime.ErrCustomerNotFound
		}

		cart, err = scanCart(tx.QueryRow(ctx, `
			INSERT INTO carritos (id_cliente) VALUES ($1)
			RETURNING `+cartColumns, customerID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart loads a cart by id.
func (s *CartStore) GetCart(ctx context.Context, q runtime.Querier, id int64) (*domain.Cart, error) {
	return scanCart(q.QueryRow(ctx, `SELECT `+cartColumns+` FROM carritos WHERE id = $1`, id))
}

// GetLines returns all lines of a cart.
func (s *CartStore) GetLines(ctx context.Context, q runtime.Querier, cartID int64) ([]domain.CartLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id_carrito, id_producto, cantidad, precio_al_momento
		FROM items_carrito
		WHERE id_carrito = $1
		ORDER BY id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0, 8)
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.CartID, &l.ProductID, &l.Quantity, &l.UnitPriceSnapshot); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpsertLine adds quantity to an existing line or creates a new one with
// the given price snapshot. Merging keeps the stored snapshot: the price
// is captured only at first add. Returns the resulting line.
func (s *CartStore) UpsertLine(ctx context.Context, q runtime.Querier, cartID, productID int64, quantity int, snapshot decimal.Decimal) (*domain.CartLine, error) {
	var l domain.CartLine
	err := q.QueryRow(ctx, `
		INSERT INTO items_carrito (id_carrito, id_producto, cantidad, precio_al_momento)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id_carrito, id_producto)
		DO UPDATE SET cantidad = items_carrito.cantidad + EXCLUDED.cantidad
		RETURNING id_carrito, id_producto, cantidad, precio_al_momento
	`, cartID, productID, quantity, snapshot).Scan(&l.CartID, &l.ProductID, &l.Quantity, &l.UnitPriceSnapshot)
	if err != nil {
		if runtime.IsForeignKeyViolation(err) {
			return nil, runtime.ErrCartNotFound
		}
		return nil, err
	}
	if err := s.touch(ctx, q, cartID); err != nil {
		return nil, err
	}
	return &l, nil
}

// SetLineQuantity overwrites the quantity of an existing line.
func (s *CartStore) SetLineQuantity(ctx context.Context, q runtime.Querier, cartID, productID int64, quantity int) error {
	tag, err := q.Exec(ctx, `
		UPDATE items_carrito SET cantidad = $3
		WHERE id_carrito = $1 AND id_producto = $2
	`, cartID, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return runtime.ErrLineNotFound
	}
	return s.touch(ctx, q, cartID)
}

// RemoveLine deletes a line from a cart.
func (s *CartStore) RemoveLine(ctx context.Context, q runtime.Querier, cartID, productID int64) error {
	tag, err := q.Exec(ctx, `
		DELETE FROM items_carrito WHERE id_carrito = $1 AND id_producto = $2
	`, cartID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return runtime.ErrLineNotFound
	}
	return s.touch(ctx, q, cartID)
}

// Deactivate closes a cart once it has been converted to an order.
func (s *CartStore) Deactivate(ctx context.Context, q runtime.Querier, cartID int64) error {
	tag, err := q.Exec(ctx, `
		UPDATE carritos SET activo = false, fecha_ultima_actualizacion = now()
		WHERE id = $1
	`, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return runtime.ErrCartNotFound
	}
	return nil
}

// DeleteCart removes a cart and cascades to its lines in one transaction.
func (s *CartStore) DeleteCart(ctx context.Context, cartID int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM items_carrito WHERE id_carrito = $1`, cartID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM carritos WHERE id = $1`, cartID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrCartNotFound
		}
		return nil
	})
}

// touch bumps the cart's last-updated timestamp; every line mutation
// goes through here.
func (s *CartStore) touch(ctx context.Context, q runtime.Querier, cartID int64) error {
	tag, err := q.Exec(ctx, `
		UPDATE carritos SET fecha_ultima_actualizacion = now() WHERE id = $1
	`, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return runtime.ErrCartNotFound
	}
	return nil
}
