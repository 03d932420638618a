// Package seed loads development fixtures into a store.
package seed

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
)

// Fixture is the seed file layout.
type Fixture struct {
	Users     []User     `json:"users"`
	Shipments []Shipment `json:"shipments"`
	Products  []Product  `json:"products"`
	Carts     []Cart     `json:"carts"`
}

type User struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

type Shipment struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	FullName    string `json:"fullName"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

type Product struct {
	ID       string          `json:"id"`
	VendorID string          `json:"vendorId"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Cart lists a user's cart lines. Vendor and price of each line are taken
// from the referenced product.
type Cart struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Items  []struct {
		ID        string `json:"id"`
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// Writer stores seeded records, replacing existing ones with the same id.
type Writer interface {
	PutUser(ctx context.Context, u user.User) error
	PutShipment(ctx context.Context, s shipment.Shipment) error
	PutProduct(ctx context.Context, p product.Product) error
	// PutCart replaces the cart and all of its items.
	PutCart(ctx context.Context, c cart.Cart, items []cart.Item) error
}

// Decode reads a JSON fixture from r.
func Decode(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	return &f, nil
}

// Load reads a fixture file. Files ending in .gz are decompressed.
func Load(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if filepath.Ext(path) == ".gz" {
		gz, err := pgzip.NewReader(file)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	f, err := Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return f, nil
}

// Apply writes every fixture record to w. Users go first so that the other
// records can reference them.
func (f *Fixture) Apply(ctx context.Context, w Writer) error {
	for _, u := range f.Users {
		if err := w.PutUser(ctx, user.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}); err != nil {
			return errors.Wrapf(err, "put user %s", u.ID)
		}
	}
	for _, s := range f.Shipments {
		if err := w.PutShipment(ctx, shipment.Shipment(s)); err != nil {
			return errors.Wrapf(err, "put shipment %s", s.ID)
		}
	}

	products := make(map[string]Product, len(f.Products))
	for _, p := range f.Products {
		if err := w.PutProduct(ctx, product.Product{
			ID:       p.ID,
			VendorID: p.VendorID,
			Title:    p.Title,
			Price:    p.Price,
			Quantity: p.Quantity,
		}); err != nil {
			return errors.Wrapf(err, "put product %s", p.ID)
		}
		products[p.ID] = p
	}

	// Distinct timestamps keep cart items in file order.
	created := time.Now().UTC()
	for _, c := range f.Carts {
		items := make([]cart.Item, 0, len(c.Items))
		total := decimal.Zero
		for _, it := range c.Items {
			p, ok := products[it.ProductID]
			if !ok {
				return errors.Wrapf(product.ErrNotFound, "cart %s item %s", c.ID, it.ID)
			}
			items = append(items, cart.Item{
				ID:        it.ID,
				CartID:    c.ID,
				ProductID: p.ID,
				VendorID:  p.VendorID,
				Quantity:  it.Quantity,
				Price:     p.Price,
				CreatedAt: created,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			created = created.Add(time.Millisecond)
		}
		if err := w.PutCart(ctx, cart.Cart{ID: c.ID, UserID: c.UserID, TotalPrice: total}, items); err != nil {
			return errors.Wrapf(err, "put cart %s", c.ID)
		}
	}
	return nil
}
