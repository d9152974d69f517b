package order

import (
	"context"
	"sync"
	"testing"

	appinventory "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	domcustomer "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/obstest"
	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	store     *memory.Store
	rec       *obstest.Recorder
	ledger    *appinventory.Ledger
	publisher *recordingPublisher
	customer  *domcustomer.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := obstest.New()
	c, err := domcustomer.New("cust-1", "Ada", "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Customers.Insert(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		store:     store,
		rec:       rec,
		ledger:    appinventory.NewLedger(store.Products, rec.Obs),
		publisher: &recordingPublisher{},
		customer:  c,
	}
}

func (f *fixture) product(t *testing.T, id string, stock int, price string) {
	t.Helper()
	p, err := dominv.NewProduct(id, "product "+id, stock, decimal.RequireFromString(price))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.store.Products.Insert(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return p.Stock
}

func (f *fixture) createUseCase(ledger InventoryLedger, opts ...CreateOrderOption) *CreateOrderUseCase {
	if ledger == nil {
		ledger = f.ledger
	}
	return NewCreateOrderUseCase(f.store.Orders, f.store.Customers, ledger, id.NewUUIDGenerator(), f.publisher, f.rec.Obs, opts...)
}
