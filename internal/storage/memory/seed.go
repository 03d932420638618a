package memory

import (
	"context"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
)

// Seeder adapts Store to seed.Writer.
type Seeder struct{ s *Store }

// Seeder returns the seeding view of the store.
func (s *Store) Seeder() *Seeder { return &Seeder{s: s} }

func (w *Seeder) PutUser(_ context.Context, u user.User) error {
	w.s.AddUser(u)
	return nil
}

func (w *Seeder) PutShipment(_ context.Context, sh shipment.Shipment) error {
	w.s.AddShipment(sh)
	return nil
}

func (w *Seeder) PutProduct(_ context.Context, p product.Product) error {
	w.s.AddProduct(p)
	return nil
}

func (w *Seeder) PutCart(_ context.Context, c cart.Cart, items []cart.Item) error {
	w.s.mu.Lock()
	for id, it := range w.s.cartItems {
		if it.CartID == c.ID {
			delete(w.s.cartItems, id)
		}
	}
	w.s.mu.Unlock()
	w.s.AddCart(c, items...)
	return nil
}
