package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmpty is returned when a user's cart has no line items.
	ErrEmpty = errors.New("cart is empty")
	// ErrNotFound is returned when a user has no cart yet.
	ErrNotFound = errors.New("cart not found")
)

// Cart is a user's shopping cart header.
type Cart struct {
	ID         string
	UserID     string
	TotalPrice decimal.Decimal
}

// Item is a single cart line. Price is the product price captured when the
// item was added.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	VendorID  string
	Quantity  int
	Price     decimal.Decimal
	CreatedAt time.Time
}

// Repository provides read access to carts and their items.
type Repository interface {
	// GetByUserID returns ErrNotFound when the user has no cart.
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	// ListItems returns the items of a cart in insertion order.
	ListItems(ctx context.Context, cartID string) ([]Item, error)
}
