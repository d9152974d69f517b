package memory

import (
	"context"
	"fmt"
	"sync"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

// PaymentRepository records payments against the orders held by an
// OrderRepository. Lock order is payments then orders.
type PaymentRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Payment
	byOrder map[string]string
	orders  *OrderRepository
}

func NewPaymentRepository(orders *OrderRepository) *PaymentRepository {
	return &PaymentRepository{
		byID:    make(map[string]*domain.Payment),
		byOrder: make(map[string]string),
		orders:  orders,
	}
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *PaymentRepository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byOrder[orderID]
	return ok, nil
}

func (r *PaymentRepository) Record(ctx context.Context, p *domain.Payment, o *domorder.Order, from domorder.Status) error {
	_ = ctx
	if p == nil || o == nil || p.ID == "" {
		return fmt.Errorf("payment repository: payment and order are required")
	}
	if p.OrderID != o.ID {
		return fmt.Errorf("payment repository: payment order %s does not match %s", p.OrderID, o.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[p.OrderID]; exists {
		return domain.ErrDuplicate
	}
	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("payment repository: id %s already exists", p.ID)
	}

	r.orders.mu.Lock()
	err := r.orders.casLocked(o.ID, from, o.Status)
	r.orders.mu.Unlock()
	if err != nil {
		return err
	}

	r.byID[p.ID] = p.Clone()
	r.byOrder[p.OrderID] = p.ID
	return nil
}
