package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// PartyStore persists customers.
type PartyStore struct {
	db *runtime.DB
}

// NewPartyStore creates a PartyStore.
func NewPartyStore(db *runtime.DB) *PartyStore {
	return &PartyStore{db: db}
}

const customerColumns = `id, nombre, apellido, telefono, direccion, email`

// CreateCustomer inserts a customer. Email, when present, must be unique.
func (s *PartyStore) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(c.FirstName) == "" {
		return nil, runtime.Validationf("nombre", "first name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return nil, runtime.Validationf("apellido", "last name is required")
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO cliente (nombre, apellido, telefono, direccion, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.FirstName, c.LastName, c.Phone, c.Address, c.Email).Scan(&c.ID)
	if err != nil {
		if runtime.IsUniqueViolation(err) {
			return nil, runtime.ErrDuplicateEmail
		}
		return nil, err
	}
	created := c
	return &created, nil
}

// UpdateCustomer rewrites a customer's fields.
func (s *PartyStore) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(c.FirstName) == "" {
		return nil, runtime.Validationf("nombre", "first name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return nil, runtime.Validationf("apellido", "last name is required")
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE cliente
		SET nombre = $2, apellido = $3, telefono = $4, direccion = $5, email = $6
		WHERE id = $1
	`, c.ID, c.FirstName, c.LastName, c.Phone, c.Address, c.Email)
	if err != nil {
		if runtime.IsUniqueViolation(err) {
			return nil, runtime.ErrDuplicateEmail
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, runtime.ErrCustomerNotFound
	}
	updated := c
	return &updated, nil
}

// GetCustomer loads a customer by id.
func (s *PartyStore) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM cliente WHERE id = $1
	`, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Address, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runtime.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// DeleteCustomer removes a customer. Orders and sales restrict the
// delete; carts keep existing but lose their weak customer reference.
func (s *PartyStore) DeleteCustomer(ctx context.Context, id int64) error {
	return s.db.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM pedido WHERE id_cliente = $1)
				OR EXISTS (SELECT 1 FROM venta WHERE id_cliente = $1)
		`, id).Scan(&referenced)
		if err != nil {
			return err
		}
		if referenced {
			return runtime.ErrCustomerInUse
		}

		if _, err := tx.Exec(ctx, `UPDATE carritos SET id_cliente = NULL WHERE id_cliente = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM cliente WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return runtime.ErrCustomerNotFound
		}
		return nil
	})
}
