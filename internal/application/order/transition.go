package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderTransition = "order.transition"

type TransitionStatusInput struct {
	OrderID string
	Status  domain.Status
}

// TransitionStatusUseCase advances an order along Created -> Paid -> Shipped -> Delivered.
type TransitionStatusUseCase struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	cache     Invalidator
	in        application.Instrument
}

type TransitionOption func(*TransitionStatusUseCase)

// WithTransitionCache evicts the cached order right after each committed transition.
func WithTransitionCache(c Invalidator) TransitionOption {
	return func(uc *TransitionStatusUseCase) { uc.cache = c }
}

func NewTransitionStatusUseCase(repo domain.Repository, publisher domoutbox.Publisher, tel observability.Observability, opts ...TransitionOption) *TransitionStatusUseCase {
	uc := &TransitionStatusUseCase{
		repo:      repo,
		publisher: publisher,
		in:        application.NewInstrument(orderService, tel),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *TransitionStatusUseCase) Execute(ctx context.Context, cmd TransitionStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Start(ctx, useCaseOrderTransition, "TransitionStatus",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.requested_status", string(cmd.Status)),
	)
	run.Annotate(
		observability.F("order_id", cmd.OrderID),
		observability.F("requested_status", string(cmd.Status)),
	)
	defer func() { run.End(err) }()

	if !cmd.Status.Valid() {
		run.Fail("STATUS_INVALID")
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, cmd.Status)
	}

	entity, err := uc.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, err
	}

	from := entity.Status
	run.Annotate(observability.F("current_status", string(from)))
	if err = entity.TransitionTo(cmd.Status); err != nil {
		run.Fail("INVALID_TRANSITION")
		return nil, err
	}

	if err = uc.repo.UpdateStatus(ctx, entity.ID, from, entity.Status); err != nil {
		if !errors.Is(err, domain.ErrStaleStatus) {
			run.Fail("ORDER_UPDATE_FAILED")
			return nil, fmt.Errorf("order: update status: %w", err)
		}
		// Lost a race with another writer: report against what is stored now.
		run.Fail("INVALID_TRANSITION")
		current, gerr := uc.repo.Get(ctx, entity.ID)
		if gerr != nil {
			return nil, errors.Join(err, gerr)
		}
		return nil, &domain.TransitionError{From: current.Status, To: cmd.Status}
	}

	if uc.cache != nil {
		if cerr := uc.cache.Invalidate(ctx, entity.ID); cerr != nil {
			run.Logger().Warn("order_cache_invalidate_failed", observability.F("order_id", entity.ID), observability.F("error", cerr.Error()))
		}
	}

	run.Event("order.status_changed",
		attribute.String("order.from", string(from)),
		attribute.String("order.to", string(entity.Status)),
	)
	if perr := uc.in.Publish(ctx, uc.publisher, domain.NewStatusChangedEvent(entity.ID, from, entity.Status)); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Annotate(observability.F("event_publish_error", perr.Error()))
	}

	return entity, nil
}
