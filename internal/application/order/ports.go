package order

import (
	"context"

	domcustomer "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/shopspring/decimal"
)

type IDGenerator interface {
	NewID() string
}

// InventoryLedger is the stock side of order creation.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error)
	Release(ctx context.Context, productID string, quantity int) error
}

type CustomerLookup interface {
	Get(ctx context.Context, id string) (*domcustomer.Customer, error)
}

// Invalidator drops a cached order. Writers call it after every committed
// status change.
type Invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// Cache is an optional read-through cache for single-order lookups.
type Cache interface {
	Invalidator
	Get(ctx context.Context, id string) (*domain.Order, bool, error)
	Set(ctx context.Context, o *domain.Order) error
}
