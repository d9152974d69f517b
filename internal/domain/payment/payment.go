package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = fmt.Errorf("payment: %w", errs.ErrNotFound)
	ErrDuplicate       = fmt.Errorf("payment: order already has a payment: %w", errs.ErrDuplicatePayment)
	ErrInvalidMethod   = fmt.Errorf("payment: unsupported payment method: %w", errs.ErrInvalidRequest)
	ErrInvalidAmount   = fmt.Errorf("payment: amount must be greater than zero: %w", errs.ErrInvalidRequest)
	ErrOrderNotPayable = fmt.Errorf("payment: order is not awaiting payment: %w", errs.ErrInvalidOrderState)
)

type Method string

const (
	MethodCard         Method = "CARD"
	MethodCash         Method = "CASH"
	MethodUPI          Method = "UPI"
	MethodBankTransfer Method = "BANK_TRANSFER"
)

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodCash, MethodUPI, MethodBankTransfer:
		return true
	}
	return false
}

// Payment is written once per order and never mutated.
type Payment struct {
	ID      string
	OrderID string
	Amount  decimal.Decimal
	Method  Method
	PaidAt  time.Time
}

func New(id, orderID string, amount decimal.Decimal, method Method) (*Payment, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Payment{
		ID:      id,
		OrderID: orderID,
		Amount:  amount,
		Method:  method,
		PaidAt:  time.Now().UTC(),
	}, nil
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
