package order

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet  = "order.get"
	useCaseOrderList = "order.list_by_status"
	useCaseOrderAll  = "order.list"
)

// QueryService serves order reads. Single-order lookups go through the cache
// when one is configured; cache errors degrade to the repository.
type QueryService struct {
	repo  domain.Repository
	cache Cache
	in    application.Instrument
}

func NewQueryService(repo domain.Repository, cache Cache, tel observability.Observability) *QueryService {
	return &QueryService{
		repo:  repo,
		cache: cache,
		in:    application.NewInstrument(orderService, tel),
	}
}

func (s *QueryService) Get(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, run := s.in.Start(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", id))
	run.Annotate(observability.F("order_id", id))
	defer func() { run.End(err) }()

	if s.cache != nil {
		cached, hit, cerr := s.cache.Get(ctx, id)
		switch {
		case cerr != nil:
			run.Logger().Warn("order_cache_get_failed", observability.F("order_id", id), observability.F("error", cerr.Error()))
		case hit:
			run.Status("CACHE_HIT")
			return cached, nil
		}
	}

	entity, err := s.repo.Get(ctx, id)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, err
	}

	if s.cache != nil {
		s.fill(ctx, run, entity)
	}
	return entity, nil
}

// fill caches entity, then re-reads the repository and evicts again if a writer
// committed after entity was read. Writers evict after their commit, so either
// their eviction or this one runs last.
func (s *QueryService) fill(ctx context.Context, run *application.Run, entity *domain.Order) {
	logger := run.Logger().With(observability.F("order_id", entity.ID))
	if err := s.cache.Set(ctx, entity); err != nil {
		logger.Warn("order_cache_set_failed", observability.F("error", err.Error()))
		return
	}
	current, err := s.repo.Get(ctx, entity.ID)
	if err == nil && current.Status == entity.Status && current.UpdatedAt.Equal(entity.UpdatedAt) {
		return
	}
	if err := s.cache.Invalidate(ctx, entity.ID); err != nil {
		logger.Warn("order_cache_invalidate_failed", observability.F("error", err.Error()))
		return
	}
	logger.Debug("order_cache_fill_superseded")
}

func (s *QueryService) ListByStatus(ctx context.Context, status domain.Status) (_ []*domain.Order, err error) {
	ctx, run := s.in.Start(ctx, useCaseOrderList, "ListOrdersByStatus", attribute.String("order.status", string(status)))
	run.Annotate(observability.F("order_status", string(status)))
	defer func() { run.End(err) }()

	if !status.Valid() {
		run.Fail("STATUS_INVALID")
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, fmt.Errorf("order: list by status: %w", err)
	}
	run.Annotate(observability.F("count", len(orders)))
	return orders, nil
}

func (s *QueryService) List(ctx context.Context, page application.Page) (_ []*domain.Order, err error) {
	page = page.Normalize()
	ctx, run := s.in.Start(ctx, useCaseOrderAll, "ListOrders",
		attribute.Int("page.offset", page.Offset),
		attribute.Int("page.limit", page.Limit),
	)
	defer func() { run.End(err) }()

	orders, err := s.repo.List(ctx, page.Offset, page.Limit)
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, fmt.Errorf("order: list: %w", err)
	}
	run.Annotate(observability.F("count", len(orders)))
	return orders, nil
}
