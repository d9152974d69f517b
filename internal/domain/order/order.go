package order

import (
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = fmt.Errorf("order: %w", errs.ErrNotFound)
	ErrNoItems         = fmt.Errorf("order: at least one item is required: %w", errs.ErrInvalidRequest)
	ErrInvalidQuantity = fmt.Errorf("order: quantity must be greater than zero: %w", errs.ErrInvalidRequest)
	ErrMissingProduct  = fmt.Errorf("order: product id is required: %w", errs.ErrInvalidRequest)
	ErrInvalidStatus   = fmt.Errorf("order: unknown status: %w", errs.ErrInvalidRequest)
	ErrConflict        = fmt.Errorf("order: id already exists: %w", errs.ErrConflict)
	// ErrStaleStatus is returned by conditional status writes when the stored
	// status no longer matches the status the caller read.
	ErrStaleStatus = fmt.Errorf("order: status changed concurrently: %w", errs.ErrConflict)
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusPaid, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Line is one ordered product. UnitPrice is the price captured when the stock
// was reserved and is never re-read from the catalog.
type Line struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID         string
	CustomerID string
	Lines      []Line
	Status     Status
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New builds a Created order and fixes its total from the line snapshots.
func New(id, customerID string, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoItems
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now().UTC()
	o := &Order{
		ID:         id,
		CustomerID: customerID,
		Lines:      append([]Line(nil), lines...),
		Status:     StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.Total = SumLines(o.Lines)
	return o, nil
}

// SumLines returns the exact sum of quantity x unit price over lines.
func SumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// TransitionTo moves the order to next if the lifecycle allows it. On failure
// the order is left untouched and a *TransitionError is returned.
func (o *Order) TransitionTo(next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	st, err := apply(stateFor(o.Status), o, next)
	if err != nil {
		return err
	}
	o.Status = st.Status()
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
