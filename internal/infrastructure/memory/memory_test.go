package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domcustomer "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/shopspring/decimal"
)

func mustProduct(t *testing.T, repo *InventoryRepository, id string, stock int, price string) {
	t.Helper()
	p, err := dominv.NewProduct(id, "product "+id, stock, decimal.RequireFromString(price))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func TestReserveNeverOversells(t *testing.T) {
	t.Parallel()

	repo := NewInventoryRepository()
	mustProduct(t, repo, "p-1", 100, "1.25")

	var (
		wg       sync.WaitGroup
		reserved atomic.Int64
		rejected atomic.Int64
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := repo.Reserve(context.Background(), "p-1", qty)
			switch {
			case err == nil:
				reserved.Add(int64(qty))
			case errors.Is(err, dominv.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("reserve: %v", err)
			}
		}(i%3 + 1)
	}
	wg.Wait()

	p, err := repo.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock < 0 {
		t.Fatalf("stock went negative: %d", p.Stock)
	}
	if int64(p.Stock)+reserved.Load() != 100 {
		t.Fatalf("stock %d + reserved %d != 100", p.Stock, reserved.Load())
	}
}

func TestReserveReleaseUnknownProduct(t *testing.T) {
	t.Parallel()

	repo := NewInventoryRepository()
	if _, err := repo.Reserve(context.Background(), "missing", 1); !errors.Is(err, dominv.ErrNotFound) {
		t.Fatalf("reserve: %v, want ErrNotFound", err)
	}
	if err := repo.Release(context.Background(), "missing", 1); !errors.Is(err, dominv.ErrNotFound) {
		t.Fatalf("release: %v, want ErrNotFound", err)
	}
}

func TestUpdateKeepsConcurrentReservations(t *testing.T) {
	t.Parallel()

	repo := NewInventoryRepository()
	mustProduct(t, repo, "p-1", 10, "5")

	if _, err := repo.Reserve(context.Background(), "p-1", 4); err != nil {
		t.Fatal(err)
	}
	p, err := repo.Update(context.Background(), "p-1", func(p *dominv.Product) error {
		p.Price = decimal.RequireFromString("6")
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Stock != 6 || !p.Price.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("product = %+v", p)
	}

	boom := errors.New("rejected")
	if _, err := repo.Update(context.Background(), "p-1", func(p *dominv.Product) error {
		p.Stock = 0
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("update err = %v", err)
	}
	got, _ := repo.Get(context.Background(), "p-1")
	if got.Stock != 6 {
		t.Fatalf("stock = %d after rejected update, want 6", got.Stock)
	}
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	repo := NewInventoryRepository()
	mustProduct(t, repo, "p-1", 1, "1")
	if err := repo.Delete(context.Background(), "p-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(context.Background(), "p-1"); !errors.Is(err, dominv.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	if err := repo.Delete(context.Background(), "p-1"); !errors.Is(err, dominv.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func newOrder(t *testing.T, id string) *domorder.Order {
	t.Helper()
	o, err := domorder.New(id, "c-1", []domorder.Line{
		{ID: id + "-l1", ProductID: "p-1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestOrderUpdateStatusIsCompareAndSet(t *testing.T) {
	t.Parallel()

	repo := NewOrderRepository()
	if err := repo.Insert(context.Background(), newOrder(t, "o-1")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(context.Background(), newOrder(t, "o-1")); !errors.Is(err, domorder.ErrConflict) {
		t.Fatalf("duplicate insert: %v", err)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.UpdateStatus(context.Background(), "o-1", domorder.StatusCreated, domorder.StatusPaid)
			if err == nil {
				wins.Add(1)
			} else if !errors.Is(err, domorder.ErrStaleStatus) {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("wins = %d, want 1", wins.Load())
	}

	if err := repo.UpdateStatus(context.Background(), "nope", domorder.StatusCreated, domorder.StatusPaid); !errors.Is(err, domorder.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestOrderListAndReferences(t *testing.T) {
	t.Parallel()

	repo := NewOrderRepository()
	for i := 0; i < 3; i++ {
		if err := repo.Insert(context.Background(), newOrder(t, fmt.Sprintf("o-%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.UpdateStatus(context.Background(), "o-1", domorder.StatusCreated, domorder.StatusPaid); err != nil {
		t.Fatal(err)
	}

	created, err := repo.ListByStatus(context.Background(), domorder.StatusCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}
	paid, _ := repo.ListByStatus(context.Background(), domorder.StatusPaid)
	if len(paid) != 1 || paid[0].ID != "o-1" {
		t.Fatalf("paid = %+v", paid)
	}

	if ok, _ := repo.ExistsLineForProduct(context.Background(), "p-1"); !ok {
		t.Fatal("p-1 should be referenced")
	}
	if ok, _ := repo.ExistsLineForProduct(context.Background(), "p-2"); ok {
		t.Fatal("p-2 should not be referenced")
	}
}

func TestRecordAtMostOnePaymentPerOrder(t *testing.T) {
	t.Parallel()

	store := NewStore()
	o := newOrder(t, "o-1")
	if err := store.Orders.Insert(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			local := o.Clone()
			if err := local.TransitionTo(domorder.StatusPaid); err != nil {
				t.Error(err)
				return
			}
			p, err := dompay.New(fmt.Sprintf("pay-%d", i), o.ID, o.Total, dompay.MethodCard)
			if err != nil {
				t.Error(err)
				return
			}
			err = store.Payments.Record(context.Background(), p, local, domorder.StatusCreated)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, dompay.ErrDuplicate):
			default:
				t.Errorf("record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("payments recorded = %d, want 1", wins.Load())
	}
	stored, _ := store.Orders.Get(context.Background(), o.ID)
	if stored.Status != domorder.StatusPaid {
		t.Fatalf("status = %s, want PAID", stored.Status)
	}
	p, err := store.Payments.GetByOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Amount.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("amount = %s, want 20", p.Amount)
	}
}

func TestRecordLeavesNoPaymentOnStaleStatus(t *testing.T) {
	t.Parallel()

	store := NewStore()
	o := newOrder(t, "o-1")
	if err := store.Orders.Insert(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if err := store.Orders.UpdateStatus(context.Background(), o.ID, domorder.StatusCreated, domorder.StatusPaid); err != nil {
		t.Fatal(err)
	}

	local := o.Clone()
	_ = local.TransitionTo(domorder.StatusPaid)
	p, _ := dompay.New("pay-1", o.ID, o.Total, dompay.MethodCash)
	if err := store.Payments.Record(context.Background(), p, local, domorder.StatusCreated); !errors.Is(err, domorder.ErrStaleStatus) {
		t.Fatalf("record: %v, want ErrStaleStatus", err)
	}
	if ok, _ := store.Payments.ExistsForOrder(context.Background(), o.ID); ok {
		t.Fatal("payment was stored despite the failed transition")
	}
}

func TestCustomerEmailUnique(t *testing.T) {
	t.Parallel()

	repo := NewCustomerRepository()
	a, _ := domcustomer.New("c-1", "Ada", "ada@example.com")
	b, _ := domcustomer.New("c-2", "Ada L", "ADA@example.com")
	if err := repo.Insert(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(context.Background(), b); !errors.Is(err, domcustomer.ErrDuplicateEmail) {
		t.Fatalf("insert duplicate: %v", err)
	}
	if _, err := repo.Get(context.Background(), "c-2"); !errors.Is(err, domcustomer.ErrNotFound) {
		t.Fatalf("get: %v", err)
	}
}

func TestCustomerUpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewCustomerRepository()
	a, _ := domcustomer.New("c-1", "Ada", "ada@example.com")
	b, _ := domcustomer.New("c-2", "Bob", "bob@example.com")
	for _, c := range []*domcustomer.Customer{a, b} {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := repo.Update(ctx, "c-2", func(c *domcustomer.Customer) error {
		return c.Update(c.Name, "ada@example.com")
	}); !errors.Is(err, domcustomer.ErrDuplicateEmail) {
		t.Fatalf("email clash: %v", err)
	}
	if _, err := repo.Update(ctx, "c-2", func(c *domcustomer.Customer) error {
		return c.Update("Robert", "robert@example.com")
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	// The old address is free again.
	c, _ := domcustomer.New("c-3", "Other Bob", "bob@example.com")
	if err := repo.Insert(ctx, c); err != nil {
		t.Fatalf("reuse old email: %v", err)
	}

	if err := repo.Delete(ctx, "c-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "c-1"); !errors.Is(err, domcustomer.ErrNotFound) {
		t.Fatalf("delete twice: %v", err)
	}
	if _, err := repo.Update(ctx, "c-1", func(*domcustomer.Customer) error { return nil }); !errors.Is(err, domcustomer.ErrNotFound) {
		t.Fatalf("update deleted: %v", err)
	}
}

func TestListWindows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	orders := NewOrderRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		o := newOrder(t, fmt.Sprintf("o-%d", i))
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		o.CustomerID = fmt.Sprintf("c-%d", i%2)
		if err := orders.Insert(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		offset, limit int
		want          []string
	}{
		{0, 2, []string{"o-0", "o-1"}},
		{2, 2, []string{"o-2", "o-3"}},
		{4, 10, []string{"o-4"}},
		{9, 2, nil},
	}
	for _, tt := range tests {
		got, err := orders.List(ctx, tt.offset, tt.limit)
		if err != nil {
			t.Fatal(err)
		}
		ids := make([]string, 0, len(got))
		for _, o := range got {
			ids = append(ids, o.ID)
		}
		if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
			t.Fatalf("List(%d, %d) = %v, want %v", tt.offset, tt.limit, ids, tt.want)
		}
	}

	if ok, _ := orders.ExistsForCustomer(ctx, "c-1"); !ok {
		t.Fatal("c-1 should have orders")
	}
	if ok, _ := orders.ExistsForCustomer(ctx, "c-9"); ok {
		t.Fatal("c-9 should have no orders")
	}

	products := NewInventoryRepository()
	mustProduct(t, products, "p-1", 1, "1.00")
	mustProduct(t, products, "p-2", 1, "1.00")
	if err := products.Delete(ctx, "p-1"); err != nil {
		t.Fatal(err)
	}
	list, err := products.List(ctx, 0, 10)
	if err != nil || len(list) != 1 || list[0].ID != "p-2" {
		t.Fatalf("products = %+v, %v", list, err)
	}
}
