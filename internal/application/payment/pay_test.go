package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	domcustomer "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/obstest"
	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, e.EventName())
	return nil
}

func setup(t *testing.T) (*memory.Store, *PayUseCase, *recordingPublisher, *domorder.Order) {
	t.Helper()
	store := memory.NewStore()
	c, _ := domcustomer.New("c-1", "Ada", "ada@example.com")
	if err := store.Customers.Insert(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	o, err := domorder.New("o-1", c.ID, []domorder.Line{
		{ID: "l-1", ProductID: "p-1", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Orders.Insert(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	pub := &recordingPublisher{}
	uc := NewPayUseCase(store.Orders, store.Payments, id.NewUUIDGenerator(), pub, obstest.New().Obs)
	return store, uc, pub, o
}

func TestPayThenDuplicate(t *testing.T) {
	t.Parallel()
	store, uc, pub, o := setup(t)

	p, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.MethodCard})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !p.Amount.Equal(decimal.RequireFromString("30.00")) || p.Method != dompay.MethodCard {
		t.Fatalf("payment = %+v", p)
	}
	stored, _ := store.Orders.Get(context.Background(), o.ID)
	if stored.Status != domorder.StatusPaid {
		t.Fatalf("status = %s, want PAID", stored.Status)
	}
	if len(pub.names) != 2 || pub.names[0] != "payment.recorded" || pub.names[1] != "order.status_changed" {
		t.Fatalf("events = %v", pub.names)
	}

	_, err = uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.MethodCash})
	if !errors.Is(err, errs.ErrDuplicatePayment) {
		t.Fatalf("second pay: %v, want duplicate payment", err)
	}
	byOrder, _ := store.Payments.GetByOrder(context.Background(), o.ID)
	if byOrder.ID != p.ID {
		t.Fatalf("stored payment = %s, want %s", byOrder.ID, p.ID)
	}
}

func TestPayRejections(t *testing.T) {
	t.Parallel()

	t.Run("unknown order", func(t *testing.T) {
		_, uc, _, _ := setup(t)
		_, err := uc.Execute(context.Background(), PayInput{OrderID: "ghost", Method: dompay.MethodCard})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("unknown method", func(t *testing.T) {
		store, uc, _, o := setup(t)
		_, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.Method("BITCOIN")})
		if !errors.Is(err, errs.ErrInvalidRequest) {
			t.Fatalf("err = %v", err)
		}
		if ok, _ := store.Payments.ExistsForOrder(context.Background(), o.ID); ok {
			t.Fatal("payment stored")
		}
	})
	t.Run("order moved on without payment", func(t *testing.T) {
		store, uc, _, o := setup(t)
		if err := store.Orders.UpdateStatus(context.Background(), o.ID, domorder.StatusCreated, domorder.StatusPaid); err != nil {
			t.Fatal(err)
		}
		_, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.MethodUPI})
		if !errors.Is(err, errs.ErrInvalidOrderState) {
			t.Fatalf("err = %v, want invalid order state", err)
		}
	})
}

func TestConcurrentPayRecordsOnePayment(t *testing.T) {
	t.Parallel()
	store, uc, _, o := setup(t)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	methods := []dompay.Method{dompay.MethodCard, dompay.MethodCash, dompay.MethodUPI, dompay.MethodBankTransfer}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(m dompay.Method) {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: m})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, errs.ErrDuplicatePayment):
			default:
				t.Errorf("pay: %v", err)
			}
		}(methods[i%len(methods)])
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("successful payments = %d, want 1", wins.Load())
	}
	if ok, _ := store.Payments.ExistsForOrder(context.Background(), o.ID); !ok {
		t.Fatal("no payment stored")
	}
}

func TestQueryService(t *testing.T) {
	t.Parallel()
	store, uc, _, o := setup(t)
	p, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.MethodBankTransfer})
	if err != nil {
		t.Fatal(err)
	}

	q := NewQueryService(store.Payments, nil)
	got, err := q.Get(context.Background(), p.ID)
	if err != nil || got.OrderID != o.ID {
		t.Fatalf("get = %+v, %v", got, err)
	}
	got, err = q.GetByOrder(context.Background(), o.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get by order = %+v, %v", got, err)
	}
	if _, err := q.Get(context.Background(), "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

type evictions struct {
	mu  sync.Mutex
	ids []string
}

func (e *evictions) Invalidate(_ context.Context, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, orderID)
	return nil
}

func TestPayEvictsCachedOrder(t *testing.T) {
	t.Parallel()
	store, _, pub, o := setup(t)
	cache := &evictions{}
	uc := NewPayUseCase(store.Orders, store.Payments, id.NewUUIDGenerator(), pub, obstest.New().Obs, WithOrderCache(cache))

	if _, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.MethodCash}); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Execute(context.Background(), PayInput{OrderID: o.ID, Method: dompay.MethodCash}); !errors.Is(err, errs.ErrDuplicatePayment) {
		t.Fatalf("second pay: %v", err)
	}
	if len(cache.ids) != 1 || cache.ids[0] != o.ID {
		t.Fatalf("evictions = %v, want one for %s", cache.ids, o.ID)
	}
}
