package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/internal/storage/memory"
)

const fixtureJSON = `{
  "users": [
    {"id": "u1", "email": "u1@example.com", "role": "customer"},
    {"id": "v1", "email": "v1@example.com", "role": "vendor"}
  ],
  "shipments": [{"id": "s1", "userId": "u1", "fullName": "U One", "address": "Somewhere", "phoneNumber": "1"}],
  "products": [{"id": "p1", "vendorId": "v1", "title": "Thing", "price": "2.50", "quantity": 4}],
  "carts": [{"id": "c1", "userId": "u1", "items": [
    {"id": "i1", "productId": "p1", "quantity": 2},
    {"id": "i2", "productId": "p1", "quantity": 1}
  ]}]
}`

func TestApply_Memory(t *testing.T) {
	ctx := context.Background()
	f, err := Decode(strings.NewReader(fixtureJSON))
	require.NoError(t, err)

	store := memory.NewStore()
	require.NoError(t, f.Apply(ctx, store.Seeder()))

	u, err := store.Users().GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, user.RoleVendor, u.Role)

	p, err := store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Quantity)

	c, err := store.Carts().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("7.50").Equal(c.TotalPrice), c.TotalPrice.String())

	items, err := store.Carts().ListItems(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "i1", items[0].ID)
	assert.Equal(t, "v1", items[0].VendorID)
	assert.True(t, decimal.RequireFromString("2.50").Equal(items[0].Price))
}

func TestApply_ReplacesCartItems(t *testing.T) {
	ctx := context.Background()
	f, err := Decode(strings.NewReader(fixtureJSON))
	require.NoError(t, err)

	store := memory.NewStore()
	require.NoError(t, f.Apply(ctx, store.Seeder()))
	f.Carts[0].Items = f.Carts[0].Items[:1]
	require.NoError(t, f.Apply(ctx, store.Seeder()))

	items, err := store.Carts().ListItems(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestApply_UnknownProduct(t *testing.T) {
	f, err := Decode(strings.NewReader(`{"carts":[{"id":"c1","userId":"u1","items":[{"id":"i1","productId":"nope","quantity":1}]}]}`))
	require.NoError(t, err)
	err = f.Apply(context.Background(), memory.NewStore().Seeder())
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json.gz")
	file, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(file)
	_, err = gz.Write([]byte(fixtureJSON))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, file.Close())

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Users, 2)
	assert.Len(t, f.Carts[0].Items, 2)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Load(bad)
	require.Error(t, err)

	notGzip := filepath.Join(t.TempDir(), "plain.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(fixtureJSON), 0o600))
	_, err = Load(notGzip)
	require.Error(t, err)
}

func TestLoad_RepositoryFixture(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "db", "seed", "shop.json"))
	require.NoError(t, err)
	require.NoError(t, f.Apply(context.Background(), memory.NewStore().Seeder()))
	assert.NotEmpty(t, f.Products)
}
