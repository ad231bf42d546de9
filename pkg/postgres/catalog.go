package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
	"github.com/shopspring/decimal"
)

// CatalogStore persists products, categories and suppliers and owns the
// atomic stock adjustment used by order placement and cancellation.
type CatalogStore struct {
	db *runtime.DB
}

// NewCatalogStore creates a CatalogStore.
func NewCatalogStore(db *runtime.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

const productColumns = `id, nombre, descripcion, precio, stock, id_categoria, id_proveedor`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.StockQuantity, &p.CategoryID, &p.SupplierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runtime.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// validateProduct applies the simple field rules: name required, unit
// price strictly positive, stock never negative.
func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return runtime.Validationf("nombre", "product name is required")
	}
	if !p.UnitPrice.IsPositive() {
		return runtime.Validationf("precio", "unit price must be greater than zero, got %s", p.UnitPrice)
	}
	if p.StockQuantity < 0 {
		return runtime.Validationf("stock", "stock quantity must not be negative, got %d", p.StockQuantity)
	}
	return nil
}

// CreateProduct inserts a product and returns it with its assigned id.
func (s *CatalogStore) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO producto (nombre, descripcion, precio, stock, id_categoria, id_proveedor)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.Name, p.Description, p.UnitPrice, p.StockQuantity, p.CategoryID, p.SupplierID).Scan(&p.ID)
	if err != nil {
		if runtime.IsForeignKeyViolation(err) {
			return nil, runtime.ErrNotFound
		}
		return nil, err
	}
	created := p
	return &created, nil
}

// UpdateProduct rewrites a product's mutable fields. Stock is adjusted
// through AdjustStock, never here, so a stale update cannot clobber a
// concurrent reservation.
func (s *CatalogStore) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE producto
		SET nombre = $2, descripcion = $3, precio = $4, id_categoria = $5, id_proveedor = $6
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.UnitPrice, p.CategoryID, p.SupplierID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, runtime.ErrProductNotFound
	}
	return s.GetProduct(ctx, p.ID)
}

// GetProduct loads a product by id.
func (s *CatalogStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return scanProduct(s.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM producto WHERE id = $1
	`, id))
}

// GetProductForUpdate loads a product inside q taking a row lock, so a
// concurrent check-and-decrement cannot interleave.
func (s *CatalogStore) GetProductForUpdate(ctx context.Context, q runtime.Querier, id int64) (*domain.Product, error) {
	return scanProduct(q.QueryRow(ctx, `
		SELECT `+productColumns+` FROM producto WHERE id = $1 FOR UPDATE
	`, id))
}

// GetUnitPrice returns the current catalog price of a product.
func (s *CatalogStore) GetUnitPrice(ctx context.Context, id int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.db.QueryRow(ctx, `SELECT precio FROM producto WHERE id = $1`, id).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, runtime.ErrProductNotFound
		}
		return decimal.Zero, err
	}
	return price, nil
}

// ListProducts returns the whole catalog ordered by name.
func (s *CatalogStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+productColumns+` FROM producto ORDER BY nombre, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.StockQuantity, &p.CategoryID, &p.SupplierID); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// AdjustStock applies delta to a product's stock in a single conditional
// statement, so the check and the write cannot be split by a concurrent
// adjustment. It runs on q, which is the surrounding transaction during
// order placement and cancellation. Returns the new quantity.
func (s *CatalogStore) AdjustStock(ctx context.Context, q runtime.Querier, id int64, delta int) (int, error) {
	if delta == 0 {
		p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM producto WHERE id = $1`, id))
		if err != nil {
			return 0, err
		}
		return p.StockQuantity, nil
	}

	var newStock int
	err := q.QueryRow(ctx, `
		UPDATE producto
		SET stock = stock + $2
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock
	`, id, delta).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// Either the product does not exist or the delta would go negative.
	var available int
	lookupErr := q.QueryRow(ctx, `SELECT stock FROM producto WHERE id = $1`, id).Scan(&available)
	if lookupErr != nil {
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return 0, runtime.ErrProductNotFound
		}
		return 0, lookupErr
	}
	return 0, &runtime.InsufficientStockError{ProductID: id, Requested: -delta, Available: available}
}

// DeleteProduct removes a product unless any cart, order or sale line
// still references it (restrict policy).
func (s *CatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM items_carrito WHERE id_producto = $1)
				OR EXISTS (SELECT 1 FROM detalle_pedido WHERE id_producto = $1)
				OR EXISTS (SELECT 1 FROM detalle_venta WHERE id_producto = $1)
		`, id).Scan(&referenced)
		if err != nil {
			return err
		}
		if referenced {
			return runtime.ErrProductInUse
		}

		tag, err := tx.Exec(ctx, `DELETE FROM producto WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrProductNotFound
		}
		return nil
	})
}

// CreateCategory inserts a category with a unique name.
func (s *CatalogStore) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, runtime.Validationf("nombre_categoria", "category name is required")
	}

	var c domain.Category
	c.Name = name
	err := s.db.QueryRow(ctx, `
		INSERT INTO categorias_producto (nombre_categoria) VALUES ($1) RETURNING id
	`, name).Scan(&c.ID)
	if err != nil {
		if runtime.IsUniqueViolation(err) {
			return nil, runtime.ErrDuplicateCategory
		}
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes a category and nulls the reference on every
// product that pointed at it, inside the same transaction.
func (s *CatalogStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE producto SET id_categoria = NULL WHERE id_categoria = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM categorias_producto WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrNotFound
		}
		return nil
	})
}

// CreateSupplier inserts a supplier. Email, when present, must be unique.
func (s *CatalogStore) CreateSupplier(ctx context.Context, sup domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return nil, runtime.Validationf("nombre", "supplier name is required")
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO proveedor (nombre, telefono, direccion, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, sup.Name, sup.Phone, sup.Address, sup.Email).Scan(&sup.ID)
	if err != nil {
		if runtime.IsUniqueViolation(err) {
			return nil, runtime.ErrDuplicateEmail
		}
		return nil, err
	}
	created := sup
	return &created, nil
}

// DeleteSupplier removes a supplier and nulls the reference on every
// product that pointed at it, inside the same transaction.
func (s *CatalogStore) DeleteSupplier(ctx context.Context, id int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE producto SET id_proveedor = NULL WHERE id_proveedor = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM proveedor WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrNotFound
		}
		return nil
	})
}
