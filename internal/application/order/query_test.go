package order

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type mapCache struct {
	orders map[string]*domain.Order
	getErr error
	gets   int
}

func (c *mapCache) Get(_ context.Context, id string) (*domain.Order, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	o, ok := c.orders[id]
	return o.Clone(), ok, nil
}

func (c *mapCache) Set(_ context.Context, o *domain.Order) error {
	c.orders[o.ID] = o.Clone()
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id string) error {
	delete(c.orders, id)
	return nil
}

func TestQueryGetReadsThroughCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	o := f.seedOrder(t)
	cache := &mapCache{orders: map[string]*domain.Order{}}
	svc := NewQueryService(f.store.Orders, cache, f.rec.Obs)

	if _, err := svc.Get(context.Background(), o.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.orders[o.ID]; !ok {
		t.Fatal("order not cached after miss")
	}

	cache.orders[o.ID].Status = domain.StatusShipped
	got, err := svc.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusShipped {
		t.Fatalf("status = %s, want cached SHIPPED", got.Status)
	}
}

func TestQueryGetSurvivesCacheOutage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	o := f.seedOrder(t)
	cache := &mapCache{orders: map[string]*domain.Order{}, getErr: errors.New("connection refused")}
	svc := NewQueryService(f.store.Orders, cache, f.rec.Obs)

	got, err := svc.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != o.ID {
		t.Fatalf("id = %s", got.ID)
	}
	if len(f.rec.Messages("order_cache_get_failed")) != 1 {
		t.Fatal("expected order_cache_get_failed warning")
	}
}

func TestQueryListByStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	o := f.seedOrder(t)
	svc := NewQueryService(f.store.Orders, nil, f.rec.Obs)

	orders, err := svc.ListByStatus(context.Background(), domain.StatusCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].ID != o.ID {
		t.Fatalf("orders = %+v", orders)
	}
	if _, err := svc.ListByStatus(context.Background(), domain.Status("x")); !errors.Is(err, errs.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid request", err)
	}
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

// commitDuringRead lets a writer commit and evict right after the first read
// returns, before the reader gets to fill the cache.
type commitDuringRead struct {
	domain.Repository
	once  bool
	write func()
}

func (r *commitDuringRead) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.Repository.Get(ctx, id)
	if !r.once {
		r.once = true
		r.write()
	}
	return o, err
}

func TestQueryFillDoesNotPinStatusChangedDuringRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	o := f.seedOrder(t)
	cache := &mapCache{orders: map[string]*domain.Order{}}
	transition := NewTransitionStatusUseCase(f.store.Orders, f.publisher, f.rec.Obs, WithTransitionCache(cache))

	repo := &commitDuringRead{Repository: f.store.Orders, write: func() {
		if _, err := transition.Execute(context.Background(), TransitionStatusInput{OrderID: o.ID, Status: domain.StatusPaid}); err != nil {
			t.Errorf("transition: %v", err)
		}
	}}
	svc := NewQueryService(repo, cache, f.rec.Obs)

	first, err := svc.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != domain.StatusCreated {
		t.Fatalf("first read = %s, want the CREATED snapshot", first.Status)
	}
	if cached, ok := cache.orders[o.ID]; ok {
		t.Fatalf("stale order left in cache with status %s", cached.Status)
	}

	got, err := svc.Get(context.Background(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPaid {
		t.Fatalf("status = %s, want PAID", got.Status)
	}
}

func TestTransitionEvictsCachedOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	o := f.seedOrder(t)
	cache := &mapCache{orders: map[string]*domain.Order{o.ID: o.Clone()}}
	uc := NewTransitionStatusUseCase(f.store.Orders, f.publisher, f.rec.Obs, WithTransitionCache(cache))

	if _, err := uc.Execute(context.Background(), TransitionStatusInput{OrderID: o.ID, Status: domain.StatusPaid}); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.orders[o.ID]; ok {
		t.Fatal("cached order survived the transition")
	}
}
