package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/product"
)

const (
	productColumns = `id, vendor_id, title, price, quantity, created_at, updated_at`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	reserveProductSQL = `UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
		RETURNING ` + productColumns

	productQuantitySQL = `SELECT quantity FROM products WHERE id = $1`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Ledger     = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository and product.Ledger backed
// by PostgreSQL.
type ProductRepository struct {
	q querier
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{q: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.q.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Reserve decrements stock with a single conditional UPDATE. The row lock
// taken by the UPDATE serializes concurrent reservations of one product.
// When no row matches, a follow-up read tells why.
func (r *ProductRepository) Reserve(ctx context.Context, productID string, quantity int) (*product.Product, error) {
	if quantity <= 0 {
		return nil, product.ErrInvalidQuantity
	}

	rows, err := r.q.Query(ctx, reserveProductSQL, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("reserving product %q: %w", productID, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserving product %q: %w", productID, err)
	}

	var available int
	if err := r.q.QueryRow(ctx, productQuantitySQL, productID).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("reading stock of product %q: %w", productID, err)
	}
	if err := product.Check(available, quantity); err != nil {
		return nil, err
	}
	// Under READ COMMITTED a restock can commit between the UPDATE and this
	// read. The UPDATE saw too little stock, so report that.
	return nil, product.ErrInsufficientQuantity
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.VendorID, &p.Title, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
