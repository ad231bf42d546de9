// Package runtime provides the database pool, the transaction runner and
// the error taxonomy shared by the stores and engines.
package runtime

import (
	"errors"
	"fmt"

	"github.com/marshallshelly/storefront/pkg/domain"
)

var (
	// ErrNotFound is returned when an entity id is unknown.
	ErrNotFound = errors.New("record not found")

	// ErrProductNotFound is returned when a product id is unknown.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// ErrCustomerNotFound is returned when a customer id is unknown.
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)

	// ErrOrderNotFound is returned when an order id is unknown.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)

	// ErrCartNotFound is returned when a cart id is unknown.
	ErrCartNotFound = fmt.Errorf("cart %w", ErrNotFound)

	// ErrLineNotFound is returned when a cart has no line for the product.
	ErrLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)

	// ErrEmptyCart is returned when placing an order from a cart with no lines.
	ErrEmptyCart = errors.New("cart has no lines")

	// ErrProductInUse rejects deleting a product still referenced by a
	// cart, order or sale line.
	ErrProductInUse = errors.New("product is referenced by existing lines")

	// ErrCustomerInUse rejects deleting a customer still referenced by an
	// order or sale.
	ErrCustomerInUse = errors.New("customer is referenced by orders or sales")

	// ErrDuplicateEmail is returned when a unique email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateCategory is returned when a category name is already taken.
	ErrDuplicateCategory = errors.New("category name already exists")

	// ErrOrderAlreadySold rejects recording a second sale for an order.
	ErrOrderAlreadySold = errors.New("order already has a sale")

	// ErrOrderNotCompleted rejects recording a sale before the order
	// finished its fulfillment lifecycle.
	ErrOrderNotCompleted = errors.New("order is not completed")

	// ErrConcurrencyConflict is surfaced after the bounded retry of a
	// serialization or deadlock failure is exhausted. Callers may retry.
	ErrConcurrencyConflict = errors.New("transaction conflict, retry the operation")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports a stock reservation that would drive a
// product's quantity negative.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// StatusTransitionError reports an order status change the transition
// table does not allow.
type StatusTransitionError struct {
	OrderID int64
	From    domain.OrderStatus
	To      domain.OrderStatus
}

// Error implements the error interface.
func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("order %d: illegal status transition %s -> %s", e.OrderID, e.From, e.To)
}

// QueryError wraps a failed query with the statement that caused it.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}
