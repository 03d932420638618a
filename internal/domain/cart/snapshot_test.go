package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/user"
)

type mockUserRepo struct {
	users map[string]*user.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUnauthorized
	}
	return u, nil
}

type mockCartRepo struct {
	carts    map[string]*Cart
	items    map[string][]Item
	itemsErr error
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID string) (*Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) ListItems(_ context.Context, cartID string) ([]Item, error) {
	return m.items[cartID], m.itemsErr
}

func newReader(items ...Item) *Reader {
	users := &mockUserRepo{users: map[string]*user.User{
		"u1": {ID: "u1", Role: user.RoleCustomer},
		"u2": {ID: "u2", Role: user.RoleCustomer},
	}}
	carts := &mockCartRepo{
		carts: map[string]*Cart{
			"u1": {ID: "c1", UserID: "u1", TotalPrice: decimal.NewFromInt(30)},
		},
		items: map[string][]Item{"c1": items},
	}
	return NewReader(users, carts)
}

func TestReader_Snapshot(t *testing.T) {
	r := newReader(
		Item{ID: "i1", CartID: "c1", ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(10)},
		Item{ID: "i2", CartID: "c1", ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(10)},
	)

	snap, err := r.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", snap.Cart.ID)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 3, snap.Quantity())

	var ids []string
	for _, it := range snap.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"i1", "i2"}, ids)
}

func TestReader_SnapshotUnknownUser(t *testing.T) {
	r := newReader(Item{ID: "i1", Quantity: 1})

	_, err := r.Snapshot(context.Background(), "ghost")
	require.ErrorIs(t, err, user.ErrUnauthorized)
}

func TestReader_SnapshotEmpty(t *testing.T) {
	t.Run("no items", func(t *testing.T) {
		_, err := newReader().Snapshot(context.Background(), "u1")
		require.ErrorIs(t, err, ErrEmpty)
	})
	t.Run("no cart", func(t *testing.T) {
		_, err := newReader().Snapshot(context.Background(), "u2")
		require.ErrorIs(t, err, ErrEmpty)
	})
}

func TestReader_SnapshotItemsError(t *testing.T) {
	r := newReader()
	r.carts.(*mockCartRepo).itemsErr = errors.New("db down")

	_, err := r.Snapshot(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list cart items")
}

func TestSnapshot_IsolatedFromSource(t *testing.T) {
	items := []Item{{ID: "i1", Quantity: 1}}
	snap := NewSnapshot(Cart{ID: "c1"}, items)
	items[0].Quantity = 99

	for _, it := range snap.Items() {
		assert.Equal(t, 1, it.Quantity)
	}
}
