package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/worker"

	"go.opentelemetry.io/otel/trace"
)

const componentOutbox = "outbox"

var ErrClosed = errors.New("outbox: bus is closed")

// queued keeps the publisher's span context so handlers continue its trace.
type queued struct {
	event domoutbox.Event
	sc    trace.SpanContext
}

// Bus is an in-memory event bus that fans each event out to its subscribers.
// It is not durable; events still queued when the process dies are lost.
type Bus struct {
	mu             sync.RWMutex
	subs           map[string][]domoutbox.Handler
	queue          chan queued
	closed         bool
	stopping       chan struct{}
	inflight       sync.WaitGroup
	startOnce      sync.Once
	stopOnce       sync.Once
	cancel         context.CancelFunc
	done           chan struct{}
	concurrency    int
	handlerTimeout time.Duration
	log            observability.Logger
}

type Option func(*Bus)

func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan queued, n)
		}
	}
}

// WithConcurrency caps the handlers run in parallel for one event.
func WithConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

func NewBus(logger observability.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	b := &Bus{
		subs:           make(map[string][]domoutbox.Handler),
		queue:          make(chan queued, 1024),
		stopping:       make(chan struct{}),
		done:           make(chan struct{}),
		concurrency:    8,
		handlerTimeout: 30 * time.Second,
		log:            logger.With(observability.F("component", componentOutbox)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events and waits until the queued ones are dispatched or
// ctx expires, whichever comes first.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.stopping)
		b.mu.Unlock()
		// Publishers already past the closed check leave promptly once
		// stopping is closed; after that nobody sends on the queue.
		b.inflight.Wait()
		close(b.queue)

		logger := logctx.FromOr(ctx, b.log)
		if b.cancel == nil {
			logger.Info("event_bus_stopped")
			return
		}
		select {
		case <-b.done:
			logger.Info("event_bus_stopped")
		case <-ctx.Done():
			b.cancel()
			logger.Warn("event_bus_stop_timeout",
				observability.F("pending", len(b.queue)),
			)
		}
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	b.inflight.Add(1)
	b.mu.RUnlock()
	defer b.inflight.Done()

	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))
	select {
	case b.queue <- queued{event: e, sc: trace.SpanContextFromContext(ctx)}:
		logger.Debug("event_enqueued")
		return nil
	case <-b.stopping:
		logger.Warn("event_enqueue_aborted", observability.F("error", ErrClosed.Error()))
		return ErrClosed
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted",
			observability.F("error", ctx.Err().Error()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case q, ok := <-b.queue:
			if !ok {
				return
			}
			b.fanout(ctx, q)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, q queued) {
	name := q.event.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			hctx := workerpresentation.WithEventContext(ctx, b.log, q.sc, map[string]string{"event": name})
			logger := logctx.FromOr(hctx, b.log)
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(hctx, b.handlerTimeout)
			defer cancel()
			if err := h(hctx, q.event); err != nil {
				logger.Warn("event_handler_error",
					observability.F("error", err.Error()),
				)
			}
		}()
	}

	wg.Wait()

	b.log.Debug("event_fanned_out",
		observability.F("event", name),
		observability.F("handlers", len(handlers)),
	)
}
