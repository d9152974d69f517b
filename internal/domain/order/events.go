package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatedEvent is emitted once an order and its stock reservations are persisted.
type CreatedEvent struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	Lines      []LineSnapshot  `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type LineSnapshot struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (CreatedEvent) EventName() string { return "order.created" }

func (e CreatedEvent) PartitionKey() string { return e.OrderID }

func NewCreatedEvent(o *Order) CreatedEvent {
	lines := make([]LineSnapshot, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, LineSnapshot{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return CreatedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Lines:      lines,
		Total:      o.Total,
		OccurredAt: time.Now().UTC(),
	}
}

// StatusChangedEvent is emitted after a lifecycle transition is persisted.
type StatusChangedEvent struct {
	OrderID    string    `json:"order_id"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (StatusChangedEvent) EventName() string { return "order.status_changed" }

func (e StatusChangedEvent) PartitionKey() string { return e.OrderID }

func NewStatusChangedEvent(orderID string, from, to Status) StatusChangedEvent {
	return StatusChangedEvent{
		OrderID:    orderID,
		From:       from,
		To:         to,
		OccurredAt: time.Now().UTC(),
	}
}
