package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
)

type CustomerRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Customer
	byEmail map[string]string
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		byID:    make(map[string]*domain.Customer),
		byEmail: make(map[string]string),
	}
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c *domain.Customer) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("customer repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[c.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	if _, exists := r.byID[c.ID]; exists {
		return fmt.Errorf("customer repository: id %s already exists", c.ID)
	}
	clone := *c
	r.byID[c.ID] = &clone
	r.byEmail[c.Email] = c.ID
	return nil
}

func (r *CustomerRepository) List(ctx context.Context, offset, limit int) ([]*domain.Customer, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Customer, 0, len(r.byID))
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return window(out, offset, limit), nil
}

func (r *CustomerRepository) Update(ctx context.Context, id string, fn func(c *domain.Customer) error) (*domain.Customer, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := *cur
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if next.Email != cur.Email {
		if _, taken := r.byEmail[next.Email]; taken {
			return nil, domain.ErrDuplicateEmail
		}
		delete(r.byEmail, cur.Email)
		r.byEmail[next.Email] = id
	}
	r.byID[id] = &next
	clone := next
	return &clone, nil
}

// Delete does not check orders; callers guard references before deleting.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, c.Email)
	return nil
}
