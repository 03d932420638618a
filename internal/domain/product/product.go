package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrOutOfStock is returned when a product has no available quantity left.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrInsufficientQuantity is returned when the requested quantity exceeds
	// the available quantity.
	ErrInsufficientQuantity = errors.New("item quantity exceeds available quantity")
	// ErrInvalidQuantity is returned when a reservation asks for a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Product represents a catalog item with its authoritative stock level.
type Product struct {
	ID        string
	VendorID  string
	Title     string
	Price     decimal.Decimal
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines read operations for the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
}

// Ledger owns per-product available quantity.
//
// Reserve checks availability and decrements stock as one indivisible
// operation: two concurrent reservations for the last unit of a product can
// never both succeed.
type Ledger interface {
	Reserve(ctx context.Context, productID string, quantity int) (*Product, error)
}

// Check classifies a reservation of quantity against available stock.
// It returns nil when the reservation can be applied.
func Check(available, quantity int) error {
	switch {
	case quantity <= 0:
		return ErrInvalidQuantity
	case available <= 0:
		return ErrOutOfStock
	case quantity > available:
		return ErrInsufficientQuantity
	default:
		return nil
	}
}
