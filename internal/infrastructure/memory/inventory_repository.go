package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// productCell serializes every mutation of one product. A nil product marks a
// cell whose product was deleted while another goroutine still held it.
type productCell struct {
	mu      sync.Mutex
	product *domain.Product
}

// InventoryRepository keeps one lock per product; the map lock only guards
// membership, so reservations on different products never contend.
type InventoryRepository struct {
	mu    sync.RWMutex
	cells map[string]*productCell
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		cells: make(map[string]*productCell),
	}
}

func (r *InventoryRepository) cell(id string) (*productCell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cells[id]
	return c, ok
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx
	c, ok := r.cell(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.product == nil {
		return nil, domain.ErrNotFound
	}
	return c.product.Clone(), nil
}

func (r *InventoryRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cells[p.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.cells[p.ID] = &productCell{product: p.Clone()}
	return nil
}

func (r *InventoryRepository) Update(ctx context.Context, id string, fn func(p *domain.Product) error) (*domain.Product, error) {
	_ = ctx
	c, ok := r.cell(id)
	if !ok {
		return nil, domain.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.product == nil {
		return nil, domain.ErrNotFound
	}
	next := c.product.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = c.product.ID
	next.CreatedAt = c.product.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	c.product = next
	return next.Clone(), nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	c, ok := r.cells[id]
	if ok {
		delete(r.cells, id)
	}
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}

	c.mu.Lock()
	c.product = nil
	c.mu.Unlock()
	return nil
}

func (r *InventoryRepository) Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	c, ok := r.cell(productID)
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.product == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	return c.product.Reserve(quantity)
}

func (r *InventoryRepository) Release(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	c, ok := r.cell(productID)
	if !ok {
		return domain.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.product == nil {
		return domain.ErrNotFound
	}
	return c.product.Release(quantity)
}

func (r *InventoryRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	cells := make([]*productCell, 0, len(r.cells))
	for _, c := range r.cells {
		cells = append(cells, c)
	}
	r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(cells))
	for _, c := range cells {
		c.mu.Lock()
		if c.product != nil {
			out = append(out, c.product.Clone())
		}
		c.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return window(out, offset, limit), nil
}
