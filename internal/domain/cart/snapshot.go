package cart

import (
	"context"
	"iter"

	"github.com/go-faster/errors"

	"github.com/xenking/shop-api/internal/domain/user"
)

// Snapshot is an immutable view of a cart taken at conversion time.
type Snapshot struct {
	Cart  Cart
	items []Item
}

// NewSnapshot copies items into a Snapshot of c.
func NewSnapshot(c Cart, items []Item) *Snapshot {
	return &Snapshot{Cart: c, items: append([]Item(nil), items...)}
}

// Len returns the number of line items.
func (s *Snapshot) Len() int { return len(s.items) }

// Quantity returns the sum of all line item quantities.
func (s *Snapshot) Quantity() int {
	var n int
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Items yields line items in insertion order. Each yielded Item is a copy.
func (s *Snapshot) Items() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i, it := range s.items {
			if !yield(i, it) {
				return
			}
		}
	}
}

// Reader reads carts as snapshots.
type Reader struct {
	users user.Repository
	carts Repository
}

// NewReader creates a Reader.
func NewReader(users user.Repository, carts Repository) *Reader {
	return &Reader{users: users, carts: carts}
}

// Snapshot resolves the user and returns their current cart with its items.
// A user without a cart is treated as having an empty one.
func (r *Reader) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	c, err := r.carts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrEmpty
		}
		return nil, errors.Wrap(err, "get cart")
	}

	items, err := r.carts.ListItems(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	return NewSnapshot(*c, items), nil
}
