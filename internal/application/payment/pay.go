package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService    = "payment-service"
	useCasePaymentPay = "payment.pay"
)

type PayInput struct {
	OrderID string
	Method  dompay.Method
}

// PayUseCase records the single payment of an order and moves it to Paid.
type PayUseCase struct {
	orders    OrderReader
	payments  dompay.Repository
	ids       IDGenerator
	publisher domoutbox.Publisher
	cache     OrderCache
	in        application.Instrument
}

type PayOption func(*PayUseCase)

func WithOrderCache(c OrderCache) PayOption {
	return func(uc *PayUseCase) { uc.cache = c }
}

func NewPayUseCase(orders OrderReader, payments dompay.Repository, idGen IDGenerator, publisher domoutbox.Publisher, tel observability.Observability, opts ...PayOption) *PayUseCase {
	uc := &PayUseCase{
		orders:    orders,
		payments:  payments,
		ids:       idGen,
		publisher: publisher,
		in:        application.NewInstrument(paymentService, tel),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *PayUseCase) Execute(ctx context.Context, cmd PayInput) (_ *dompay.Payment, err error) {
	ctx, run := uc.in.Start(ctx, useCasePaymentPay, "Pay",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.method", string(cmd.Method)),
	)
	run.Annotate(
		observability.F("order_id", cmd.OrderID),
		observability.F("method", string(cmd.Method)),
	)
	defer func() { run.End(err) }()

	order, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, err
	}
	if !cmd.Method.Valid() {
		run.Fail("METHOD_INVALID")
		return nil, fmt.Errorf("%w: %q", dompay.ErrInvalidMethod, cmd.Method)
	}

	// A paid order already has its payment; report that before the state check
	// so retries of a successful pay read as duplicates.
	exists, err := uc.payments.ExistsForOrder(ctx, order.ID)
	if err != nil {
		run.Fail("PAYMENT_LOOKUP_FAILED")
		return nil, fmt.Errorf("payment: lookup: %w", err)
	}
	if exists {
		run.Fail("DUPLICATE_PAYMENT")
		return nil, dompay.ErrDuplicate
	}
	if order.Status != domorder.StatusCreated {
		run.Fail("ORDER_NOT_PAYABLE")
		return nil, fmt.Errorf("%w: status %s", dompay.ErrOrderNotPayable, order.Status)
	}

	from := order.Status
	if err = order.TransitionTo(domorder.StatusPaid); err != nil {
		run.Fail("INVALID_TRANSITION")
		return nil, err
	}

	p, err := dompay.New(uc.ids.NewID(), order.ID, order.Total, cmd.Method)
	if err != nil {
		run.Fail("PAYMENT_INVALID")
		return nil, err
	}
	run.SetAttributes(attribute.String("payment.id", p.ID), attribute.String("payment.amount", p.Amount.String()))
	run.Annotate(observability.F("payment_id", p.ID), observability.F("amount", p.Amount.String()))

	if err = uc.payments.Record(ctx, p, order, from); err != nil {
		switch {
		case errors.Is(err, dompay.ErrDuplicate):
			run.Fail("DUPLICATE_PAYMENT")
			return nil, dompay.ErrDuplicate
		case errors.Is(err, domorder.ErrStaleStatus):
			// Another writer moved the order; if that writer was a payment this
			// is a duplicate, otherwise the order is no longer payable.
			if dup, xerr := uc.payments.ExistsForOrder(ctx, order.ID); xerr == nil && dup {
				run.Fail("DUPLICATE_PAYMENT")
				return nil, dompay.ErrDuplicate
			}
			run.Fail("ORDER_NOT_PAYABLE")
			return nil, fmt.Errorf("%w: %w", dompay.ErrOrderNotPayable, err)
		default:
			run.Fail("PAYMENT_RECORD_FAILED")
			return nil, fmt.Errorf("payment: record: %w", err)
		}
	}

	if uc.cache != nil {
		if cerr := uc.cache.Invalidate(ctx, order.ID); cerr != nil {
			run.Logger().Warn("order_cache_invalidate_failed", observability.F("order_id", order.ID), observability.F("error", cerr.Error()))
		}
	}

	run.Event("payment.recorded", attribute.String("payment.id", p.ID))
	events := []domoutbox.Event{
		dompay.NewRecordedEvent(p),
		domorder.NewStatusChangedEvent(order.ID, from, order.Status),
	}
	for _, ev := range events {
		if perr := uc.in.Publish(ctx, uc.publisher, ev); perr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
			run.Annotate(observability.F("event_publish_error", perr.Error()))
		}
	}
	return p, nil
}
