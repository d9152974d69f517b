package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = fmt.Errorf("inventory: product %w", errs.ErrNotFound)
	ErrInvalidQuantity   = fmt.Errorf("inventory: quantity must be greater than zero: %w", errs.ErrInvalidRequest)
	ErrInvalidName       = fmt.Errorf("inventory: product name is required: %w", errs.ErrInvalidRequest)
	ErrInvalidPrice      = fmt.Errorf("inventory: price must be greater than zero: %w", errs.ErrInvalidRequest)
	ErrNegativeStock     = fmt.Errorf("inventory: stock must be zero or greater: %w", errs.ErrInvalidRequest)
	ErrInsufficientStock = fmt.Errorf("inventory: %w", errs.ErrInsufficientStock)
	ErrDuplicateID       = fmt.Errorf("inventory: product id already exists: %w", errs.ErrConflict)
	ErrProductInUse      = fmt.Errorf("inventory: product is referenced by ordered items: %w", errs.ErrConflict)
)

// Product is a catalog entry together with its authoritative stock counter.
type Product struct {
	ID        string
	Name      string
	Stock     int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProduct(id, name string, stock int, price decimal.Decimal) (*Product, error) {
	now := time.Now().UTC()
	p := &Product{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Stock:     stock,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// Reserve decrements stock by quantity and returns the unit price at that instant.
// Callers must hold whatever lock serializes mutations of this product.
func (p *Product) Reserve(quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return decimal.Zero, InsufficientStockError(p.ID, quantity, p.Stock)
	}
	p.Stock -= quantity
	p.touch()
	return p.Price, nil
}

// Release gives quantity back to the stock counter.
func (p *Product) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// InsufficientStockError wraps ErrInsufficientStock with the figures that caused it.
func InsufficientStockError(productID string, requested, available int) error {
	return fmt.Errorf("%w: product %s requested %d available %d", ErrInsufficientStock, productID, requested, available)
}
