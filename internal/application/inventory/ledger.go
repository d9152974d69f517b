package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"
	useCaseReserve   = "inventory.reserve"
	useCaseRelease   = "inventory.release"
	reserveSpanName  = "ReserveStock"
	releaseSpanName  = "ReleaseStock"
)

// Ledger owns per-product stock. It knows nothing about orders: Reserve and
// Release delegate to the repository's per-product atomic primitives.
type Ledger struct {
	repo dominv.Repository
	in   application.Instrument
}

func NewLedger(repo dominv.Repository, tel observability.Observability) *Ledger {
	return &Ledger{
		repo: repo,
		in:   application.NewInstrument(inventoryService, tel),
	}
}

// Reserve atomically checks and decrements stock for productID and returns the
// unit price captured at that instant.
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int) (_ decimal.Decimal, err error) {
	ctx, run := l.in.Start(ctx, useCaseReserve, reserveSpanName,
		attribute.String("product.id", productID),
		attribute.Int("inventory.quantity", quantity),
	)
	run.Annotate(
		observability.F("product_id", productID),
		observability.F("quantity", quantity),
	)
	defer func() { run.End(err) }()

	if quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return decimal.Zero, dominv.ErrInvalidQuantity
	}

	price, err := l.repo.Reserve(ctx, productID, quantity)
	if err != nil {
		run.Fail(failureStatus(err))
		return decimal.Zero, fmt.Errorf("inventory: reserve: %w", err)
	}

	run.Event("inventory.reserved", attribute.String("unit_price", price.String()))
	return price, nil
}

// Release gives quantity back to productID. It is the compensation primitive
// for reservations that must be undone.
func (l *Ledger) Release(ctx context.Context, productID string, quantity int) (err error) {
	ctx, run := l.in.Start(ctx, useCaseRelease, releaseSpanName,
		attribute.String("product.id", productID),
		attribute.Int("inventory.quantity", quantity),
	)
	run.Annotate(
		observability.F("product_id", productID),
		observability.F("quantity", quantity),
	)
	defer func() { run.End(err) }()

	if quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return dominv.ErrInvalidQuantity
	}
	if err = l.repo.Release(ctx, productID, quantity); err != nil {
		run.Fail(failureStatus(err))
		return fmt.Errorf("inventory: release: %w", err)
	}
	return nil
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, dominv.ErrInvalidQuantity):
		return "QUANTITY_INVALID"
	default:
		return "REPOSITORY_FAILED"
	}
}
