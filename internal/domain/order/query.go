package order

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
)

// Pagination limits.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

// NewPage parses page and limit query values. Empty, malformed or
// non-positive values fall back to the defaults; limit is capped.
func NewPage(number, limit string) Page {
	p := Page{Number: 1, Limit: DefaultPageLimit}
	if n, err := strconv.Atoi(number); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = min(n, MaxPageLimit)
	}
	return p
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	p.Limit = min(p.Limit, MaxPageLimit)
	return p
}

// Offset returns the number of records preceding the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PagedResult is one page of a listing with navigation metadata.
type PagedResult[T any] struct {
	Docs        []T
	TotalDocs   int
	Limit       int
	Page        int
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
	PrevPage    *int
	NextPage    *int
}

func newPagedResult[T any](docs []T, total int, p Page) *PagedResult[T] {
	if docs == nil {
		docs = []T{}
	}
	r := &PagedResult[T]{
		Docs:       docs,
		TotalDocs:  total,
		Limit:      p.Limit,
		Page:       p.Number,
		TotalPages: (total + p.Limit - 1) / p.Limit,
	}
	if r.TotalPages == 0 {
		r.TotalPages = 1
	}
	if p.Number > 1 {
		prev := p.Number - 1
		r.HasPrevPage = true
		r.PrevPage = &prev
	}
	if p.Number < r.TotalPages {
		next := p.Number + 1
		r.HasNextPage = true
		r.NextPage = &next
	}
	return r
}

// ListOrders returns order headers newest first.
func (s *Service) ListOrders(ctx context.Context, p Page) (*PagedResult[Order], error) {
	p = p.normalize()
	orders, total, err := s.orders.List(ctx, p.Offset(), p.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return newPagedResult(orders, total, p), nil
}

// ListVendorItems returns the order items that reference products of
// vendorID, newest first.
func (s *Service) ListVendorItems(ctx context.Context, vendorID string, p Page) (*PagedResult[Item], error) {
	p = p.normalize()
	items, total, err := s.orders.ListItemsByVendor(ctx, vendorID, p.Offset(), p.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list vendor items")
	}
	return newPagedResult(items, total, p), nil
}
