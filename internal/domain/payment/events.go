package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordedEvent is emitted once a payment and the matching order transition are committed.
type RecordedEvent struct {
	PaymentID  string          `json:"payment_id"`
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     Method          `json:"method"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (RecordedEvent) EventName() string { return "payment.recorded" }

func (e RecordedEvent) PartitionKey() string { return e.OrderID }

func NewRecordedEvent(p *Payment) RecordedEvent {
	return RecordedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Method:     p.Method,
		OccurredAt: p.PaidAt,
	}
}
