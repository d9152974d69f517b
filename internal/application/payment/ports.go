package payment

import (
	"context"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
}

// OrderReader is the slice of the order store the payment processor needs.
type OrderReader interface {
	Get(ctx context.Context, id string) (*domorder.Order, error)
}

// OrderCache drops the cached copy of an order once its payment commits.
type OrderCache interface {
	Invalidate(ctx context.Context, orderID string) error
}
