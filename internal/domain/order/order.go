package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/product"
)

// Status is the lifecycle state of a persisted order.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Order is an immutable order header. Shipment fields are copied at creation
// time. TotalProducts always equals the sum of Items quantities.
type Order struct {
	ID            string
	UserID        string
	Name          string
	Address       string
	PhoneNumber   string
	TotalPrice    decimal.Decimal
	TotalProducts int
	Status        Status
	DiscountCode  string
	Items         []Item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item is one order line, created from exactly one cart item.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	VendorID  string
	Price     decimal.Decimal
	Quantity  int
	CreatedAt time.Time
}

// Repository defines read and status operations for persisted orders.
type Repository interface {
	// GetByID returns the order with its items, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// List returns order headers newest first and the total order count.
	List(ctx context.Context, offset, limit int) ([]Order, int, error)
	// ListItemsByVendor returns order items of a vendor newest first and
	// their total count.
	ListItemsByVendor(ctx context.Context, vendorID string, offset, limit int) ([]Item, int, error)
	// Cancel moves an active order to StatusCancelled. It returns ErrNotFound
	// or ErrAlreadyCancelled when the transition does not apply.
	Cancel(ctx context.Context, id string) (*Order, error)
}

// Tx is the set of writes a cart-to-order conversion performs. All of them
// become visible together on commit or not at all.
type Tx interface {
	product.Ledger
	CreateOrder(ctx context.Context, o *Order) error
	CreateItem(ctx context.Context, it *Item) error
	DeleteCartItem(ctx context.Context, itemID string) error
}

// Transactor runs fn as one unit of work. If fn returns an error, or ctx
// ends before commit, every write made through tx is undone.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventCreated   EventType = "order.created"
	EventCancelled EventType = "order.cancelled"
)

// Event is emitted after an order change has been committed.
type Event struct {
	Type       EventType
	Order      *Order
	OccurredAt time.Time
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
