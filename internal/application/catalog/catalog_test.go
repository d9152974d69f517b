package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/obstest"
	"github.com/shopspring/decimal"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store.Products, store.Customers, store.Orders, id.NewUUIDGenerator(), obstest.New().Obs), store
}

func TestProductLifecycle(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Lamp", Stock: 3, Price: decimal.RequireFromString("19.99")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("missing id")
	}

	name, stock := "Desk lamp", 7
	updated, err := svc.UpdateProduct(ctx, UpdateProductInput{ID: p.ID, Name: &name, Stock: &stock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Stock != 7 || !updated.Price.Equal(p.Price) {
		t.Fatalf("updated = %+v", updated)
	}

	neg := -1
	if _, err := svc.UpdateProduct(ctx, UpdateProductInput{ID: p.ID, Stock: &neg}); !errors.Is(err, errs.ErrInvalidRequest) {
		t.Fatalf("negative stock: %v", err)
	}
	got, err := svc.GetProduct(ctx, p.ID)
	if err != nil || got.Stock != 7 {
		t.Fatalf("get = %+v, %v", got, err)
	}

	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetProduct(ctx, p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get deleted: %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	if _, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Free", Stock: 1, Price: decimal.Zero}); !errors.Is(err, errs.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid request", err)
	}
}

func TestDeleteProductInUse(t *testing.T) {
	t.Parallel()
	svc, store := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Lamp", Stock: 3, Price: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := domorder.New("o-1", "c-1", []domorder.Line{{ID: "l-1", ProductID: p.ID, Quantity: 1, UnitPrice: p.Price}})
	if err := store.Orders.Insert(ctx, o); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteProduct(ctx, p.ID); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if _, err := svc.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("product gone after rejected delete: %v", err)
	}
}

func TestCustomers(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Ada 2", Email: "Ada@Example.com"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate email: %v", err)
	}
	got, err := svc.GetCustomer(ctx, c.ID)
	if err != nil || got.Email != "ada@example.com" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := svc.GetCustomer(ctx, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestCustomerUpdateDelete(t *testing.T) {
	t.Parallel()
	svc, store := newService(t)
	ctx := context.Background()

	ada, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	bob, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateCustomer(ctx, UpdateCustomerInput{ID: bob.ID, Name: "Bob", Email: "ada@example.com"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("email clash: %v", err)
	}
	if _, err := svc.UpdateCustomer(ctx, UpdateCustomerInput{ID: bob.ID, Name: "Bob", Email: "a@b@c"}); !errors.Is(err, errs.ErrInvalidRequest) {
		t.Fatalf("bad email: %v", err)
	}
	if _, err := svc.UpdateCustomer(ctx, UpdateCustomerInput{ID: "ghost", Name: "X", Email: "x@example.com"}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
	got, err := svc.UpdateCustomer(ctx, UpdateCustomerInput{ID: bob.ID, Name: "Robert", Email: "robert@example.com"})
	if err != nil || got.Name != "Robert" || got.Email != "robert@example.com" {
		t.Fatalf("update = %+v, %v", got, err)
	}

	o, _ := domorder.New("o-1", ada.ID, []domorder.Line{{ID: "l-1", ProductID: "p-1", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}})
	if err := store.Orders.Insert(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCustomer(ctx, ada.ID); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("delete with orders: %v", err)
	}
	if err := svc.DeleteCustomer(ctx, bob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteCustomer(ctx, bob.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete twice: %v", err)
	}
}

func TestListPages(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	for i := range 3 {
		if _, err := svc.CreateProduct(ctx, CreateProductInput{Name: fmt.Sprintf("p%d", i), Stock: 1, Price: decimal.NewFromInt(1)}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := svc.ListProducts(ctx, application.Page{})
	if err != nil || len(all) != 3 {
		t.Fatalf("default page = %d, %v", len(all), err)
	}
	tail, err := svc.ListProducts(ctx, application.Page{Offset: 2, Limit: 2})
	if err != nil || len(tail) != 1 || tail[0].ID != all[2].ID {
		t.Fatalf("tail = %+v, %v", tail, err)
	}

	if _, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatal(err)
	}
	customers, err := svc.ListCustomers(ctx, application.Page{Limit: 500})
	if err != nil || len(customers) != 1 {
		t.Fatalf("customers = %d, %v", len(customers), err)
	}
}
