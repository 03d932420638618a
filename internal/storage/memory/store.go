// Package memory provides an in-process store for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
)

// stock is a product with its own lock. Reservations on different products
// never contend.
type stock struct {
	mu sync.Mutex
	p  product.Product
}

// Store keeps all records in memory.
type Store struct {
	mu         sync.RWMutex
	users      map[string]user.User
	shipments  map[string]shipment.Shipment
	products   map[string]*stock
	carts      map[string]cart.Cart // by user id
	cartItems  map[string]cart.Item
	orders     map[string]order.Order
	orderItems []order.Item
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]user.User),
		shipments: make(map[string]shipment.Shipment),
		products:  make(map[string]*stock),
		carts:     make(map[string]cart.Cart),
		cartItems: make(map[string]cart.Item),
		orders:    make(map[string]order.Order),
	}
}

// AddUser inserts or replaces a user.
func (s *Store) AddUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddShipment inserts or replaces a shipment.
func (s *Store) AddShipment(sh shipment.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments[sh.ID] = sh
}

// AddProduct inserts or replaces a product.
func (s *Store) AddProduct(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &stock{p: p}
}

// AddCart inserts or replaces a user's cart and appends items to it.
func (s *Store) AddCart(c cart.Cart, items ...cart.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.UserID] = c
	for _, it := range items {
		it.CartID = c.ID
		s.cartItems[it.ID] = it
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Shipments returns the shipment repository view of the store.
func (s *Store) Shipments() *ShipmentRepository { return &ShipmentRepository{s: s} }

// Products returns the product repository view of the store.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Carts returns the cart repository view of the store.
func (s *Store) Carts() *CartRepository { return &CartRepository{s: s} }

// Orders returns the order repository view of the store.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

var (
	_ user.Repository     = (*UserRepository)(nil)
	_ shipment.Repository = (*ShipmentRepository)(nil)
	_ product.Repository  = (*ProductRepository)(nil)
	_ product.Ledger      = (*ProductRepository)(nil)
	_ cart.Repository     = (*CartRepository)(nil)
)

// UserRepository implements user.Repository.
type UserRepository struct{ s *Store }

func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUnauthorized
	}
	return &u, nil
}

// ShipmentRepository implements shipment.Repository.
type ShipmentRepository struct{ s *Store }

func (r *ShipmentRepository) GetByID(_ context.Context, id string) (*shipment.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sh, ok := r.s.shipments[id]
	if !ok {
		return nil, shipment.ErrNotFound
	}
	return &sh, nil
}

// ProductRepository implements product.Repository and product.Ledger.
type ProductRepository struct{ s *Store }

func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	st, ok := r.s.stock(id)
	if !ok {
		return nil, product.ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	p := st.p
	return &p, nil
}

// Reserve decrements stock outside of any unit of work.
func (r *ProductRepository) Reserve(_ context.Context, productID string, quantity int) (*product.Product, error) {
	return r.s.reserve(productID, quantity)
}

func (s *Store) stock(id string) (*stock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.products[id]
	return st, ok
}

func (s *Store) reserve(productID string, quantity int) (*product.Product, error) {
	st, ok := s.stock(productID)
	if !ok {
		return nil, product.ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := product.Check(st.p.Quantity, quantity); err != nil {
		return nil, err
	}
	st.p.Quantity -= quantity
	p := st.p
	return &p, nil
}

func (s *Store) release(productID string, quantity int) {
	st, ok := s.stock(productID)
	if !ok {
		return
	}
	st.mu.Lock()
	st.p.Quantity += quantity
	st.mu.Unlock()
}

// CartRepository implements cart.Repository.
type CartRepository struct{ s *Store }

func (r *CartRepository) GetByUserID(_ context.Context, userID string) (*cart.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return &c, nil
}

func (r *CartRepository) ListItems(_ context.Context, cartID string) ([]cart.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var items []cart.Item
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			items = append(items, it)
		}
	}
	slices.SortFunc(items, func(a, b cart.Item) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}
