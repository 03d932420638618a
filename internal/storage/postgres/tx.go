package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/order"
)

// DefaultRollbackTimeout bounds a rollback issued after the caller's context
// has ended.
const DefaultRollbackTimeout = 5 * time.Second

var (
	_ order.Transactor = (*Transactor)(nil)
	_ order.Tx         = (*orderTx)(nil)
)

// Transactor runs order conversions in a PostgreSQL transaction.
type Transactor struct {
	pool            *pgxpool.Pool
	rollbackTimeout time.Duration
}

// NewTransactor returns a Transactor using pool. A non-positive
// rollbackTimeout selects DefaultRollbackTimeout.
func NewTransactor(pool *pgxpool.Pool, rollbackTimeout time.Duration) *Transactor {
	if rollbackTimeout <= 0 {
		rollbackTimeout = DefaultRollbackTimeout
	}
	return &Transactor{pool: pool, rollbackTimeout: rollbackTimeout}
}

// InTx begins a transaction, runs fn and commits. Any error from fn or from
// commit rolls the transaction back, and so does a panic in fn, which then
// propagates with the connection already returned to the pool.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			t.rollback(ctx, tx)
		}
	}()

	if err := fn(ctx, newOrderTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// rollback runs even when ctx is already done.
func (t *Transactor) rollback(ctx context.Context, tx pgx.Tx) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(rctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		zctx.From(ctx).Error("Rollback failed", zap.Error(err))
	}
}

type orderTx struct {
	*ProductRepository
	q querier
}

func newOrderTx(tx pgx.Tx) *orderTx {
	return &orderTx{ProductRepository: &ProductRepository{q: tx}, q: tx}
}

func (t *orderTx) CreateOrder(ctx context.Context, o *order.Order) error {
	return createOrder(ctx, t.q, o)
}

func (t *orderTx) CreateItem(ctx context.Context, it *order.Item) error {
	return createOrderItem(ctx, t.q, it)
}

func (t *orderTx) DeleteCartItem(ctx context.Context, itemID string) error {
	return deleteCartItem(ctx, t.q, itemID)
}
