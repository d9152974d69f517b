package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	envelopeVersion = 1
	peerKafka       = "kafka"
)

// Envelope is the wire format of every relayed domain event.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	TraceID      string          `json:"trace_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// MessageWriter is the subset of *kafka.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a synchronous writer keyed by aggregate id so every event
// of one order lands on the same partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Relay forwards bus events to Kafka.
type Relay struct {
	w        MessageWriter
	producer string
	log      observability.Logger
	counter  observability.Counter
	duration observability.Histogram
}

func NewRelay(w MessageWriter, producer string, tel observability.Observability) *Relay {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Relay{
		w:        w,
		producer: producer,
		log:      tel.Logger().With(observability.F("component", "kafka_relay")),
		counter:  m.Counter(observability.MExternalRequests),
		duration: m.Histogram(observability.MExternalRequestDuration),
	}
}

// Start subscribes the relay to each named event.
func (r *Relay) Start(sub domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		sub.Subscribe(name, r.Handle)
	}
}

func (r *Relay) Handle(ctx context.Context, e domoutbox.Event) error {
	msg, err := r.message(ctx, e, time.Now().UTC())
	if err != nil {
		return err
	}

	start := time.Now()
	err = r.w.WriteMessages(ctx, msg)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.counter.Add(1,
		observability.L("peer", peerKafka),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", outcome),
	)
	r.duration.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerKafka),
		observability.L("endpoint", e.EventName()),
	)
	if err != nil {
		logctx.FromOr(ctx, r.log).Warn("kafka_write_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("kafka: write %s: %w", e.EventName(), err)
	}
	return nil
}

func (r *Relay) message(ctx context.Context, e domoutbox.Event, now time.Time) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    e.EventName(),
		EventVersion: envelopeVersion,
		OccurredAt:   now,
		Producer:     r.producer,
		Payload:      payload,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		env.TraceID = sc.TraceID().String()
	}
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode envelope: %w", err)
	}

	msg := kafka.Message{
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}
	if k, ok := e.(domoutbox.Keyed); ok {
		msg.Key = []byte(k.PartitionKey())
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})
	return msg, nil
}

func (r *Relay) Close() error {
	if r.w == nil {
		return nil
	}
	return r.w.Close()
}

// headerCarrier adapts Kafka headers to the otel propagation carrier.
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
