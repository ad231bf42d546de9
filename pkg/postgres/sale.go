package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// SaleStore persists sales and their lines.
type SaleStore struct {
	db *runtime.DB
}

// NewSaleStore creates a SaleStore.
func NewSaleStore(db *runtime.DB) *SaleStore {
	return &SaleStore{db: db}
}

const saleColumns = `id, id_pedido, id_cliente, fecha_venta, total_venta, tipo_pago`

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var v domain.Sale
	err := row.Scan(&v.ID, &v.OrderID, &v.CustomerID, &v.SoldAt, &v.TotalAmount, &v.PaymentMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runtime.ErrNotFound
		}
		return nil, err
	}
	v.SoldAt = v.SoldAt.UTC()
	return &v, nil
}

// SaleExistsForOrder reports whether an order already has a sale. Runs on
// the caller's transaction so the check-then-write of sale recording is
// atomic; the unique key on id_pedido is the storage-level backstop.
func (s *SaleStore) SaleExistsForOrder(ctx context.Context, q runtime.Querier, orderID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM venta WHERE id_pedido = $1)`, orderID).Scan(&exists)
	return exists, err
}

// InsertSale writes the sale row inside the caller's transaction.
func (s *SaleStore) InsertSale(ctx context.Context, q runtime.Querier, v domain.Sale) (*domain.Sale, error) {
	sale, err := scanSale(q.QueryRow(ctx, `
		INSERT INTO venta (id_pedido, id_cliente, total_venta, tipo_pago)
		VALUES ($1, $2, $3, $4)
		RETURNING `+saleColumns, v.OrderID, v.CustomerID, v.TotalAmount, v.PaymentMethod))
	if err != nil {
		if runtime.IsUniqueViolation(err) {
			return nil, runtime.ErrOrderAlreadySold
		}
		return nil, err
	}
	return sale, nil
}

// InsertLines writes the sale lines inside the caller's transaction.
func (s *SaleStore) InsertLines(ctx context.Context, q runtime.Querier, lines []domain.SaleLine) error {
	for _, l := range lines {
		_, err := q.Exec(ctx, `
			INSERT INTO detalle_venta (id_venta, id_producto, cantidad, precio_unitario, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetSale loads a sale by id.
func (s *SaleStore) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return scanSale(s.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM venta WHERE id = $1`, id))
}

// GetLines returns the lines of a sale.
func (s *SaleStore) GetLines(ctx context.Context, saleID int64) ([]domain.SaleLine, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id_venta, id_producto, cantidad, precio_unitario, subtotal
		FROM detalle_venta
		WHERE id_venta = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0, 8)
	for rows.Next() {
		var l domain.SaleLine
		if err := rows.Scan(&l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// DeleteSale removes a sale and cascades to its lines in one transaction.
func (s *SaleStore) DeleteSale(ctx context.Context, id int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM detalle_venta WHERE id_venta = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM venta WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrNotFound
		}
		return nil
	})
}
