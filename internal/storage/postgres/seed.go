package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
)

// Seeder upserts fixture records. It implements seed.Writer.
type Seeder struct {
	pool *pgxpool.Pool
}

// NewSeeder creates a Seeder.
func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

func (s *Seeder) PutUser(ctx context.Context, u user.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role`,
		u.ID, u.Name, u.Email, string(u.Role),
	)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	return nil
}

func (s *Seeder) PutShipment(ctx context.Context, sh shipment.Shipment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO shipments (id, user_id, full_name, address, phone_number) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, full_name = EXCLUDED.full_name,
			address = EXCLUDED.address, phone_number = EXCLUDED.phone_number`,
		sh.ID, sh.UserID, sh.FullName, sh.Address, sh.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("upserting shipment %q: %w", sh.ID, err)
	}
	return nil
}

func (s *Seeder) PutProduct(ctx context.Context, p product.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (id, vendor_id, title, price, quantity) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET vendor_id = EXCLUDED.vendor_id, title = EXCLUDED.title,
			price = EXCLUDED.price, quantity = EXCLUDED.quantity, updated_at = now()`,
		p.ID, p.VendorID, p.Title, p.Price, p.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func (s *Seeder) PutCart(ctx context.Context, c cart.Cart, items []cart.Item) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO carts (id, user_id, total_price) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, total_price = EXCLUDED.total_price`,
			c.ID, c.UserID, c.TotalPrice,
		); err != nil {
			return fmt.Errorf("upserting cart %q: %w", c.ID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
			return fmt.Errorf("clearing items of cart %q: %w", c.ID, err)
		}
		for _, it := range items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO cart_items (id, cart_id, product_id, vendor_id, quantity, price, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				it.ID, c.ID, it.ProductID, it.VendorID, it.Quantity, it.Price, it.CreatedAt,
			); err != nil {
				return fmt.Errorf("inserting cart item %q: %w", it.ID, err)
			}
		}
		return nil
	})
}
