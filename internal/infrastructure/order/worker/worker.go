package worker

import (
	"context"
	"fmt"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

// Invalidator drops a cached order.
type Invalidator interface {
	Invalidate(ctx context.Context, orderID string) error
}

// CacheWorker evicts cached orders whenever their status moves.
type CacheWorker struct {
	cache      Invalidator
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewCacheWorker(cache Invalidator, subscriber domoutbox.Subscriber, logger observability.Logger) *CacheWorker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CacheWorker{
		cache:      cache,
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "order_cache_worker")),
	}
}

func (w *CacheWorker) Start() {
	if w.subscriber == nil || w.cache == nil {
		return
	}
	w.subscriber.Subscribe(domorder.StatusChangedEvent{}.EventName(), w.handleStatusChanged)
	w.subscriber.Subscribe(dompay.RecordedEvent{}.EventName(), w.handlePaymentRecorded)
}

func (w *CacheWorker) handleStatusChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.StatusChangedEvent)
	if !ok {
		return nil
	}
	return w.evict(ctx, evt.OrderID, string(evt.To))
}

func (w *CacheWorker) handlePaymentRecorded(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(dompay.RecordedEvent)
	if !ok {
		return nil
	}
	return w.evict(ctx, evt.OrderID, string(domorder.StatusPaid))
}

func (w *CacheWorker) evict(ctx context.Context, orderID, status string) error {
	logger := logctx.FromOr(ctx, w.log).With(observability.F("order_id", orderID))
	if err := w.cache.Invalidate(ctx, orderID); err != nil {
		logger.Warn("order_cache_invalidate_failed", observability.F("error", err.Error()))
		return fmt.Errorf("order worker: invalidate cache: %w", err)
	}
	logger.Debug("order_cache_invalidated", observability.F("status", status))
	return nil
}
