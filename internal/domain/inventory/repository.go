package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository stores products. Reserve and Release must be atomic per product:
// no other reservation on the same product may observe the stock between the
// check and the decrement.
type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	Insert(ctx context.Context, p *Product) error
	// Update applies fn to the stored product under the product's lock and
	// persists the result if fn returns nil.
	Update(ctx context.Context, id string, fn func(p *Product) error) (*Product, error)
	Delete(ctx context.Context, id string) error
	// List returns products ordered by creation time, then id.
	List(ctx context.Context, offset, limit int) ([]*Product, error)

	Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error)
	Release(ctx context.Context, productID string, quantity int) error
}
