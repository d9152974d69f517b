package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	orderService               = "order-service"
	useCaseOrderCreate         = "order.create"
	defaultCompensationTimeout = 5 * time.Second
)

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID string
	Items      []ItemInput
}

// CreateOrderUseCase reserves stock line by line and persists a priced order.
// Any failure after the first reservation releases what was reserved before
// the error is returned, so an order is never partially committed against stock.
type CreateOrderUseCase struct {
	repo      domain.Repository
	customers CustomerLookup
	ledger    InventoryLedger
	ids       IDGenerator
	publisher domoutbox.Publisher
	in        application.Instrument

	compensationTimeout  time.Duration
	compensationFailures observability.Counter
}

type CreateOrderOption func(*CreateOrderUseCase)

// WithCompensationTimeout bounds the releases run after a failed creation.
func WithCompensationTimeout(d time.Duration) CreateOrderOption {
	return func(uc *CreateOrderUseCase) {
		if d > 0 {
			uc.compensationTimeout = d
		}
	}
}

func NewCreateOrderUseCase(
	repo domain.Repository,
	customers CustomerLookup,
	ledger InventoryLedger,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...CreateOrderOption,
) *CreateOrderUseCase {
	in := application.NewInstrument(orderService, tel)
	uc := &CreateOrderUseCase{
		repo:                 repo,
		customers:            customers,
		ledger:               ledger,
		ids:                  idGen,
		publisher:            publisher,
		in:                   in,
		compensationTimeout:  defaultCompensationTimeout,
		compensationFailures: in.Metrics().Counter(observability.MCompensationFailures),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type reservation struct {
	productID string
	quantity  int
}

// Execute performs the order creation flow.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Start(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.customer_id", cmd.CustomerID),
		attribute.Int("order.items", len(cmd.Items)),
	)
	run.Annotate(
		observability.F("customer_id", cmd.CustomerID),
		observability.F("items", len(cmd.Items)),
	)
	defer func() { run.End(err) }()

	if _, err = uc.customers.Get(ctx, cmd.CustomerID); err != nil {
		run.Fail("CUSTOMER_LOOKUP_FAILED")
		return nil, fmt.Errorf("order: resolve customer: %w", err)
	}
	if len(cmd.Items) == 0 {
		run.Fail("ITEMS_REQUIRED")
		return nil, domain.ErrNoItems
	}
	for i, item := range cmd.Items {
		if item.ProductID == "" {
			run.Fail("PRODUCT_ID_REQUIRED")
			return nil, fmt.Errorf("%w: item %d", domain.ErrMissingProduct, i)
		}
		if item.Quantity <= 0 {
			run.Fail("QUANTITY_INVALID")
			return nil, fmt.Errorf("%w: item %d", domain.ErrInvalidQuantity, i)
		}
	}

	reserved := make([]reservation, 0, len(cmd.Items))
	lines := make([]domain.Line, 0, len(cmd.Items))
	for i, item := range cmd.Items {
		if cerr := ctx.Err(); cerr != nil {
			run.Fail("CONTEXT_CANCELED")
			return nil, uc.compensate(ctx, run, reserved, cerr)
		}
		price, rerr := uc.ledger.Reserve(ctx, item.ProductID, item.Quantity)
		if rerr != nil {
			run.Fail("RESERVE_FAILED")
			run.Annotate(observability.F("failed_line", i), observability.F("product_id", item.ProductID))
			return nil, uc.compensate(ctx, run, reserved, fmt.Errorf("order: reserve line %d: %w", i, rerr))
		}
		reserved = append(reserved, reservation{productID: item.ProductID, quantity: item.Quantity})
		lines = append(lines, domain.Line{
			ID:        uc.ids.NewID(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	entity, derr := domain.New(uc.ids.NewID(), cmd.CustomerID, lines)
	if derr != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, uc.compensate(ctx, run, reserved, fmt.Errorf("order: construct: %w", derr))
	}
	if ierr := uc.repo.Insert(ctx, entity); ierr != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, uc.compensate(ctx, run, reserved, fmt.Errorf("order: insert: %w", ierr))
	}

	run.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("order.total", entity.Total.String()),
	)
	run.Annotate(
		observability.F("order_id", entity.ID),
		observability.F("total", entity.Total.String()),
	)
	run.Event("order.created", attribute.String("order.id", entity.ID))

	if perr := uc.in.Publish(ctx, uc.publisher, domain.NewCreatedEvent(entity)); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Annotate(observability.F("event_publish_error", perr.Error()))
	}

	return entity, nil
}

// compensate releases reservations in reverse order on a context that survives
// the caller's cancellation. Release failures leave stock permanently
// under-counted; each one is logged as an integrity alert and joined to cause.
func (uc *CreateOrderUseCase) compensate(ctx context.Context, run *application.Run, reserved []reservation, cause error) error {
	if len(reserved) == 0 {
		return cause
	}

	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.compensationTimeout)
	defer cancel()

	var failures []error
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := uc.ledger.Release(relCtx, r.productID, r.quantity); err != nil {
			uc.compensationFailures.Add(1)
			run.Logger().Error("stock_compensation_failed",
				observability.F("product_id", r.productID),
				observability.F("quantity", r.quantity),
				observability.F("error", err.Error()),
				observability.F("cause", cause.Error()),
			)
			failures = append(failures, fmt.Errorf("order: release %s x%d: %w", r.productID, r.quantity, err))
		}
	}
	run.Annotate(
		observability.F("released_lines", len(reserved)-len(failures)),
		observability.F("release_failures", len(failures)),
	)

	if len(failures) > 0 {
		run.Fail("COMPENSATION_FAILED")
		return errors.Join(append([]error{cause}, failures...)...)
	}
	return cause
}
