package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/product"
)

// emptyRows is a result set with no rows, as returned by an UPDATE whose
// WHERE clause matched nothing.
type emptyRows struct{}

func (emptyRows) Close()                                       {}
func (emptyRows) Err() error                                   { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("UPDATE 0") }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (emptyRows) Next() bool                                   { return false }
func (emptyRows) Scan(...any) error                            { return pgx.ErrNoRows }
func (emptyRows) Values() ([]any, error)                       { return nil, nil }
func (emptyRows) RawValues() [][]byte                          { return nil }
func (emptyRows) Conn() *pgx.Conn                              { return nil }

type quantityRow struct {
	quantity int
	err      error
}

func (r quantityRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.quantity
	return nil
}

// missQuerier fails every reservation and reports the stock read afterwards.
type missQuerier struct {
	row quantityRow
}

func (missQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (missQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return emptyRows{}, nil
}

func (q missQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return q.row
}

func TestProductRepository_ReserveMiss(t *testing.T) {
	tests := []struct {
		name    string
		row     quantityRow
		wantErr error
	}{
		{name: "out of stock", row: quantityRow{quantity: 0}, wantErr: product.ErrOutOfStock},
		{name: "insufficient", row: quantityRow{quantity: 1}, wantErr: product.ErrInsufficientQuantity},
		{name: "restocked after update", row: quantityRow{quantity: 10}, wantErr: product.ErrInsufficientQuantity},
		{name: "deleted", row: quantityRow{err: pgx.ErrNoRows}, wantErr: product.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &ProductRepository{q: missQuerier{row: tt.row}}
			p, err := repo.Reserve(context.Background(), "p1", 2)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, p)
		})
	}
}
