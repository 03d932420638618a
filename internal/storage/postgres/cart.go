package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/cart"
)

const (
	getCartByUserIDSQL = `SELECT id, user_id, total_price FROM carts WHERE user_id = $1`

	listCartItemsSQL = `SELECT id, cart_id, product_id, vendor_id, quantity, price, created_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	q querier
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{q: pool}
}

func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.q.QueryRow(ctx, getCartByUserIDSQL, userID).Scan(&c.ID, &c.UserID, &c.TotalPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart of user %q: %w", userID, err)
	}
	return &c, nil
}

func (r *CartRepository) ListItems(ctx context.Context, cartID string) ([]cart.Item, error) {
	rows, err := r.q.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing items of cart %q: %w", cartID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VendorID, &it.Quantity, &it.Price, &it.CreatedAt)
		return it, err
	})
}

func deleteCartItem(ctx context.Context, q querier, itemID string) error {
	tag, err := q.Exec(ctx, deleteCartItemSQL, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting cart item %q: %w", itemID, cart.ErrNotFound)
	}
	return nil
}
