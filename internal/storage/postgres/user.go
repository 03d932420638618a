package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
)

const (
	getUserByIDSQL = `SELECT id, name, email, role FROM users WHERE id = $1`

	getShipmentByIDSQL = `SELECT id, user_id, full_name, address, phone_number
		FROM shipments WHERE id = $1`
)

var (
	_ user.Repository     = (*UserRepository)(nil)
	_ shipment.Repository = (*ShipmentRepository)(nil)
)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	q querier
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{q: pool}
}

// GetByID returns user.ErrUnauthorized when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := r.q.QueryRow(ctx, getUserByIDSQL, id).Scan(&u.ID, &u.Name, &u.Email, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUnauthorized
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	u.Role = user.Role(role)
	return &u, nil
}

// ShipmentRepository implements shipment.Repository backed by PostgreSQL.
type ShipmentRepository struct {
	q querier
}

// NewShipmentRepository returns a ShipmentRepository that uses the given pool.
func NewShipmentRepository(pool *pgxpool.Pool) *ShipmentRepository {
	return &ShipmentRepository{q: pool}
}

func (r *ShipmentRepository) GetByID(ctx context.Context, id string) (*shipment.Shipment, error) {
	var sh shipment.Shipment
	err := r.q.QueryRow(ctx, getShipmentByIDSQL, id).
		Scan(&sh.ID, &sh.UserID, &sh.FullName, &sh.Address, &sh.PhoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipment.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipment %q: %w", id, err)
	}
	return &sh, nil
}
