package order

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
)

// ErrInvalidStatusTransition is matched by every *TransitionError.
var ErrInvalidStatusTransition = errs.ErrInvalidStatusTransition

// TransitionError reports a rejected lifecycle move.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order: invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return errs.ErrInvalidStatusTransition }

// OrderState implements the state pattern for order lifecycle transitions.
// The lifecycle is a strict chain: Created -> Paid -> Shipped -> Delivered.
type OrderState interface {
	Status() Status
	OnPaid(o *Order) (OrderState, error)
	OnShipped(o *Order) (OrderState, error)
	OnDelivered(o *Order) (OrderState, error)
}

// terminal rejects every event; concrete states override the single move they allow.
type terminal struct{ status Status }

func (t terminal) Status() Status { return t.status }

func (t terminal) OnPaid(*Order) (OrderState, error) {
	return nil, &TransitionError{From: t.status, To: StatusPaid}
}

func (t terminal) OnShipped(*Order) (OrderState, error) {
	return nil, &TransitionError{From: t.status, To: StatusShipped}
}

func (t terminal) OnDelivered(*Order) (OrderState, error) {
	return nil, &TransitionError{From: t.status, To: StatusDelivered}
}

type createdState struct{ terminal }

func (createdState) OnPaid(*Order) (OrderState, error) { return paidState{terminal{StatusPaid}}, nil }

type paidState struct{ terminal }

func (paidState) OnShipped(*Order) (OrderState, error) {
	return shippedState{terminal{StatusShipped}}, nil
}

type shippedState struct{ terminal }

func (shippedState) OnDelivered(*Order) (OrderState, error) {
	return terminal{StatusDelivered}, nil
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusCreated:
		return createdState{terminal{StatusCreated}}
	case StatusPaid:
		return paidState{terminal{StatusPaid}}
	case StatusShipped:
		return shippedState{terminal{StatusShipped}}
	default:
		return terminal{s}
	}
}

// apply dispatches the requested target status to the matching state event.
func apply(st OrderState, o *Order, next Status) (OrderState, error) {
	switch next {
	case StatusPaid:
		return st.OnPaid(o)
	case StatusShipped:
		return st.OnShipped(o)
	case StatusDelivered:
		return st.OnDelivered(o)
	default:
		return nil, &TransitionError{From: st.Status(), To: next}
	}
}

// CanTransition reports whether from -> to is one of the allowed lifecycle moves.
func CanTransition(from, to Status) bool {
	_, err := apply(stateFor(from), &Order{Status: from}, to)
	return err == nil
}
