package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.casLocked(id, from, to)
}

// casLocked moves id from -> to. Callers hold r.mu for writing.
func (r *OrderRepository) casLocked(id string, from, to domain.Status) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if order.Status != from {
		return domain.ErrStaleStatus
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o.Clone())
		}
	}
	r.mu.RUnlock()

	sortOrders(out)
	return out, nil
}

func (r *OrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.Clone())
	}
	r.mu.RUnlock()

	sortOrders(out)
	return window(out, offset, limit), nil
}

func (r *OrderRepository) ExistsForCustomer(ctx context.Context, customerID string) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

func sortOrders(out []*domain.Order) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}

func (r *OrderRepository) ExistsLineForProduct(ctx context.Context, productID string) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		for _, l := range o.Lines {
			if l.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}
