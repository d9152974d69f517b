package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestRelayWritesEnvelopeKeyedByOrder(t *testing.T) {
	w := &fakeWriter{}
	r := NewRelay(w, "minishop", observability.Nop())

	evt := domorder.NewStatusChangedEvent("order-42", domorder.StatusCreated, domorder.StatusPaid)
	if err := r.Handle(context.Background(), evt); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "order-42" {
		t.Fatalf("key = %q, want order-42", msg.Key)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.EventType != "order.status_changed" || env.Producer != "minishop" || env.EventID == "" {
		t.Fatalf("envelope = %+v", env)
	}

	var payload struct {
		OrderID string `json:"order_id"`
		From    string `json:"from"`
		To      string `json:"to"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.OrderID != "order-42" || payload.From != "CREATED" || payload.To != "PAID" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestRelayReturnsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	r := NewRelay(&fakeWriter{err: boom}, "minishop", nil)

	err := r.Handle(context.Background(), domorder.NewStatusChangedEvent("o", domorder.StatusPaid, domorder.StatusShipped))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
