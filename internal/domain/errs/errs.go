// Package errs defines the error kinds shared by every domain package.
// Package-level sentinels wrap one of these so callers can branch on the kind
// with errors.Is without knowing which aggregate produced the error.
package errs

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidOrderState       = errors.New("invalid order state")
	ErrDuplicatePayment        = errors.New("duplicate payment")
	ErrConflict                = errors.New("conflict")
)
