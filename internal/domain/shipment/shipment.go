package shipment

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a shipment record does not exist.
var ErrNotFound = errors.New("shipment not found")

// Shipment is the address and contact record an order ships to.
type Shipment struct {
	ID          string
	UserID      string
	FullName    string
	Address     string
	PhoneNumber string
}

// Repository provides read access to shipment records.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Shipment, error)
}
