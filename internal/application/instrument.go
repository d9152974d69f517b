package application

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instrument carries the logger, tracer and RED metrics shared by the use cases of one service.
type Instrument struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	metrics      observability.Metrics
}

func NewInstrument(service string, tel observability.Observability) Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instrument{
		log:          tel.Logger().With(observability.F("service", service)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
		metrics:      m,
	}
}

func (in Instrument) Logger() observability.Logger { return in.log }

func (in Instrument) Metrics() observability.Metrics { return in.metrics }

// Run tracks one use case execution. It starts as success/OK; Fail flips the
// outcome and End emits the span status, metrics and a single use_case_done log.
type Run struct {
	in      Instrument
	ctx     context.Context
	useCase string
	span    trace.Span
	logger  observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

func (in Instrument) Start(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	return ctx, &Run{
		in:      in,
		ctx:     ctx,
		useCase: useCase,
		span:    span,
		logger:  logger,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as failed with a short machine-readable status.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status text without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// Annotate adds fields to the final use_case_done log line.
func (r *Run) Annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// Event records a span event.
func (r *Run) Event(name string, attrs ...attribute.KeyValue) {
	if r.span != nil {
		r.span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (r *Run) SetAttributes(attrs ...attribute.KeyValue) {
	if r.span != nil {
		r.span.SetAttributes(attrs...)
	}
}

func (r *Run) End(err error) {
	if err != nil && r.outcome != "error" {
		r.Fail("ERROR")
	}
	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	latency := time.Since(r.start).Seconds()
	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(latency,
		observability.L("use_case", r.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", latency),
	}
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	r.logger.Info("use_case_done", fields...)
}

// Publish hands event to publisher with a short timeout and records the
// external call metrics. A nil publisher is a no-op.
func (in Instrument) Publish(ctx context.Context, publisher domoutbox.Publisher, event domoutbox.Event) error {
	if publisher == nil || event == nil {
		return nil
	}

	endpoint := event.EventName()
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if pubCtx.Err() != nil {
			outcome = "canceled"
		}
	}
	cancel()

	in.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)
	return err
}
