package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
)

var (
	_ order.Repository = (*OrderRepository)(nil)
	_ order.Transactor = (*Store)(nil)
	_ order.Tx         = (*tx)(nil)
)

// OrderRepository implements order.Repository.
type OrderRepository struct{ s *Store }

func newestFirst[T any](created func(T) time.Time, id func(T) string) func(a, b T) int {
	return func(a, b T) int {
		if c := created(b).Compare(created(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	}
}

func window[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = nil
	for _, it := range r.s.orderItems {
		if it.OrderID == id {
			o.Items = append(o.Items, it)
		}
	}
	return &o, nil
}

func (r *OrderRepository) List(_ context.Context, offset, limit int) ([]order.Order, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]order.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		all = append(all, o)
	}
	slices.SortFunc(all, newestFirst(
		func(o order.Order) time.Time { return o.CreatedAt },
		func(o order.Order) string { return o.ID },
	))
	return slices.Clone(window(all, offset, limit)), len(all), nil
}

func (r *OrderRepository) ListItemsByVendor(_ context.Context, vendorID string, offset, limit int) ([]order.Item, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []order.Item
	for _, it := range r.s.orderItems {
		if it.VendorID == vendorID {
			all = append(all, it)
		}
	}
	slices.SortFunc(all, newestFirst(
		func(it order.Item) time.Time { return it.CreatedAt },
		func(it order.Item) string { return it.ID },
	))
	return slices.Clone(window(all, offset, limit)), len(all), nil
}

func (r *OrderRepository) Cancel(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if o.Status != order.StatusActive {
		return nil, order.ErrAlreadyCancelled
	}
	o.Status = order.StatusCancelled
	o.UpdatedAt = time.Now()
	r.s.orders[id] = o
	return &o, nil
}

type reservation struct {
	productID string
	quantity  int
}

// tx buffers order writes and cart deletions until commit. Reservations
// take effect immediately and are undone on rollback.
type tx struct {
	s        *Store
	reserved []reservation
	orders   []order.Order
	items    []order.Item
	deleted  []string
}

// InTx runs fn as one unit of work against the store. Anything short of a
// successful commit, a panic in fn included, releases the reserved stock.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	t := &tx{s: s}
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()

	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "commit")
	}
	if err := t.commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	committed = true
	return nil
}

func (t *tx) Reserve(ctx context.Context, productID string, quantity int) (*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := t.s.reserve(productID, quantity)
	if err != nil {
		return nil, err
	}
	t.reserved = append(t.reserved, reservation{productID: productID, quantity: quantity})
	return p, nil
}

func (t *tx) CreateOrder(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h := *o
	h.Items = nil
	t.orders = append(t.orders, h)
	return nil
}

func (t *tx) CreateItem(ctx context.Context, it *order.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !slices.ContainsFunc(t.orders, func(o order.Order) bool { return o.ID == it.OrderID }) {
		return errors.Errorf("order %s not created in this unit of work", it.OrderID)
	}
	t.items = append(t.items, *it)
	return nil
}

func (t *tx) DeleteCartItem(ctx context.Context, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, ok := t.s.cartItems[itemID]
	t.s.mu.RUnlock()
	if !ok {
		return errors.Wrapf(cart.ErrNotFound, "cart item %s", itemID)
	}
	t.deleted = append(t.deleted, itemID)
	return nil
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, id := range t.deleted {
		if _, ok := t.s.cartItems[id]; !ok {
			return errors.Wrapf(cart.ErrNotFound, "cart item %s", id)
		}
	}
	for _, o := range t.orders {
		t.s.orders[o.ID] = o
	}
	t.s.orderItems = append(t.s.orderItems, t.items...)
	for _, id := range t.deleted {
		delete(t.s.cartItems, id)
	}
	return nil
}

func (t *tx) rollback() {
	for i := len(t.reserved) - 1; i >= 0; i-- {
		r := t.reserved[i]
		t.s.release(r.productID, r.quantity)
	}
	t.reserved = nil
	t.orders = nil
	t.items = nil
	t.deleted = nil
}
