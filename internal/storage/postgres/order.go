package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/order"
)

const (
	orderColumns = `id, user_id, name, address, phone_number, total_price, total_products,
		status, discount_code, created_at, updated_at`

	orderItemColumns = `id, order_id, product_id, vendor_id, price, quantity, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	createOrderItemSQL = `INSERT INTO order_items (` + orderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT ` + orderItemColumns + `
		FROM order_items WHERE order_id = $1 ORDER BY created_at, id`

	listOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT count(*) FROM orders`

	listVendorItemsSQL = `SELECT ` + orderItemColumns + `
		FROM order_items WHERE vendor_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`

	countVendorItemsSQL = `SELECT count(*) FROM order_items WHERE vendor_id = $1`

	cancelOrderSQL = `UPDATE orders SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + orderColumns

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	q querier
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{q: pool}
}

// GetByID returns the order header with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.q.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	rows, err = r.q.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", id, err)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, offset, limit int) ([]order.Order, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, countOrdersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	rows, err := r.q.Query(ctx, listOrdersSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

func (r *OrderRepository) ListItemsByVendor(ctx context.Context, vendorID string, offset, limit int) ([]order.Item, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, countVendorItemsSQL, vendorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting items of vendor %q: %w", vendorID, err)
	}
	rows, err := r.q.Query(ctx, listVendorItemsSQL, vendorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing items of vendor %q: %w", vendorID, err)
	}
	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, 0, fmt.Errorf("listing items of vendor %q: %w", vendorID, err)
	}
	return items, total, nil
}

// Cancel transitions an active order to cancelled. Only one of several
// concurrent calls for the same order can match the WHERE clause.
func (r *OrderRepository) Cancel(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.q.Query(ctx, cancelOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("cancelling order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cancelling order %q: %w", id, err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking order %q: %w", id, err)
	}
	if !exists {
		return nil, order.ErrNotFound
	}
	return nil, order.ErrAlreadyCancelled
}

func createOrder(ctx context.Context, q querier, o *order.Order) error {
	_, err := q.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.Name, o.Address, o.PhoneNumber, o.TotalPrice, o.TotalProducts,
		string(o.Status), o.DiscountCode, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

func createOrderItem(ctx context.Context, q querier, it *order.Item) error {
	_, err := q.Exec(ctx, createOrderItemSQL,
		it.ID, it.OrderID, it.ProductID, it.VendorID, it.Price, it.Quantity, it.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order item %q: %w", it.ID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Name, &o.Address, &o.PhoneNumber, &o.TotalPrice, &o.TotalProducts,
		&status, &o.DiscountCode, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VendorID, &it.Price, &it.Quantity, &it.CreatedAt)
	return it, err
}
