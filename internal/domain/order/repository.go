package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// UpdateStatus writes to only if the stored status is still from,
	// otherwise it returns ErrStaleStatus.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	ListByStatus(ctx context.Context, status Status) ([]*Order, error)
	// List returns orders ordered by creation time, then id.
	List(ctx context.Context, offset, limit int) ([]*Order, error)
	ExistsLineForProduct(ctx context.Context, productID string) (bool, error)
	ExistsForCustomer(ctx context.Context, customerID string) (bool, error)
}
