package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Payment, error)
	GetByOrder(ctx context.Context, orderID string) (*Payment, error)
	ExistsForOrder(ctx context.Context, orderID string) (bool, error)

	// Record inserts p and moves o from the stored status from to o.Status as
	// one atomic unit. It returns ErrDuplicate when the order already has a
	// payment and order.ErrStaleStatus when the stored status is no longer from.
	// Neither write survives a failure of the other.
	Record(ctx context.Context, p *Payment, o *order.Order, from order.Status) error
}
