package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	domcustomer "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"

	useCaseProductCreate  = "catalog.product_create"
	useCaseProductUpdate  = "catalog.product_update"
	useCaseProductDelete  = "catalog.product_delete"
	useCaseProductGet     = "catalog.product_get"
	useCaseCustomerCreate = "catalog.customer_create"
	useCaseCustomerGet    = "catalog.customer_get"
	useCaseProductList    = "catalog.product_list"
	useCaseCustomerList   = "catalog.customer_list"
	useCaseCustomerUpdate = "catalog.customer_update"
	useCaseCustomerDelete = "catalog.customer_delete"
)

type IDGenerator interface {
	NewID() string
}

// OrderReferences reports whether orders still point at a product or a customer.
type OrderReferences interface {
	ExistsLineForProduct(ctx context.Context, productID string) (bool, error)
	ExistsForCustomer(ctx context.Context, customerID string) (bool, error)
}

type CreateProductInput struct {
	Name  string
	Stock int
	Price decimal.Decimal
}

// UpdateProductInput carries the fields to change; nil fields are kept.
type UpdateProductInput struct {
	ID    string
	Name  *string
	Stock *int
	Price *decimal.Decimal
}

type CreateCustomerInput struct {
	Name  string
	Email string
}

type UpdateCustomerInput struct {
	ID    string
	Name  string
	Email string
}

// Service manages products and customers, the reference data orders are built from.
type Service struct {
	products  dominv.Repository
	customers domcustomer.Repository
	refs      OrderReferences
	ids       IDGenerator
	in        application.Instrument
}

func NewService(products dominv.Repository, customers domcustomer.Repository, refs OrderReferences, idGen IDGenerator, tel observability.Observability) *Service {
	return &Service{
		products:  products,
		customers: customers,
		refs:      refs,
		ids:       idGen,
		in:        application.NewInstrument(catalogService, tel),
	}
}

func (s *Service) CreateProduct(ctx context.Context, cmd CreateProductInput) (_ *dominv.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseProductCreate, "CreateProduct", attribute.String("product.name", cmd.Name))
	defer func() { run.End(err) }()

	p, err := dominv.NewProduct(s.ids.NewID(), cmd.Name, cmd.Stock, cmd.Price)
	if err != nil {
		run.Fail("PRODUCT_INVALID")
		return nil, err
	}
	run.Annotate(observability.F("product_id", p.ID))
	if err = s.products.Insert(ctx, p); err != nil {
		run.Fail("PRODUCT_INSERT_FAILED")
		return nil, fmt.Errorf("catalog: create product: %w", err)
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, cmd UpdateProductInput) (_ *dominv.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseProductUpdate, "UpdateProduct", attribute.String("product.id", cmd.ID))
	run.Annotate(observability.F("product_id", cmd.ID))
	defer func() { run.End(err) }()

	p, err := s.products.Update(ctx, cmd.ID, func(p *dominv.Product) error {
		if cmd.Name != nil {
			p.Name = strings.TrimSpace(*cmd.Name)
		}
		if cmd.Stock != nil {
			p.Stock = *cmd.Stock
		}
		if cmd.Price != nil {
			p.Price = *cmd.Price
		}
		return p.Validate()
	})
	if err != nil {
		switch {
		case errors.Is(err, dominv.ErrNotFound):
			run.Fail("PRODUCT_NOT_FOUND")
			return nil, err
		case errors.Is(err, errs.ErrInvalidRequest):
			run.Fail("PRODUCT_INVALID")
			return nil, err
		}
		run.Fail("PRODUCT_UPDATE_FAILED")
		return nil, fmt.Errorf("catalog: update product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes a product that no order line references.
func (s *Service) DeleteProduct(ctx context.Context, id string) (err error) {
	ctx, run := s.in.Start(ctx, useCaseProductDelete, "DeleteProduct", attribute.String("product.id", id))
	run.Annotate(observability.F("product_id", id))
	defer func() { run.End(err) }()

	if _, err = s.products.Get(ctx, id); err != nil {
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return err
	}
	inUse, err := s.refs.ExistsLineForProduct(ctx, id)
	if err != nil {
		run.Fail("REFERENCE_CHECK_FAILED")
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if inUse {
		run.Fail("PRODUCT_IN_USE")
		return dominv.ErrProductInUse
	}
	if err = s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, dominv.ErrProductInUse) {
			run.Fail("PRODUCT_IN_USE")
			return err
		}
		run.Fail("PRODUCT_DELETE_FAILED")
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (_ *dominv.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseProductGet, "GetProduct", attribute.String("product.id", id))
	run.Annotate(observability.F("product_id", id))
	defer func() { run.End(err) }()

	p, err := s.products.Get(ctx, id)
	if err != nil {
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, err
	}
	return p, nil
}

func (s *Service) CreateCustomer(ctx context.Context, cmd CreateCustomerInput) (_ *domcustomer.Customer, err error) {
	ctx, run := s.in.Start(ctx, useCaseCustomerCreate, "CreateCustomer")
	defer func() { run.End(err) }()

	c, err := domcustomer.New(s.ids.NewID(), cmd.Name, cmd.Email)
	if err != nil {
		run.Fail("CUSTOMER_INVALID")
		return nil, err
	}
	run.Annotate(observability.F("customer_id", c.ID))
	if err = s.customers.Insert(ctx, c); err != nil {
		if errors.Is(err, domcustomer.ErrDuplicateEmail) {
			run.Fail("DUPLICATE_EMAIL")
			return nil, err
		}
		run.Fail("CUSTOMER_INSERT_FAILED")
		return nil, fmt.Errorf("catalog: create customer: %w", err)
	}
	return c, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (_ *domcustomer.Customer, err error) {
	ctx, run := s.in.Start(ctx, useCaseCustomerGet, "GetCustomer", attribute.String("customer.id", id))
	run.Annotate(observability.F("customer_id", id))
	defer func() { run.End(err) }()

	c, err := s.customers.Get(ctx, id)
	if err != nil {
		run.Fail("CUSTOMER_LOOKUP_FAILED")
		return nil, err
	}
	return c, nil
}

func (s *Service) ListProducts(ctx context.Context, page application.Page) (_ []*dominv.Product, err error) {
	page = page.Normalize()
	ctx, run := s.in.Start(ctx, useCaseProductList, "ListProducts",
		attribute.Int("page.offset", page.Offset),
		attribute.Int("page.limit", page.Limit),
	)
	defer func() { run.End(err) }()

	products, err := s.products.List(ctx, page.Offset, page.Limit)
	if err != nil {
		run.Fail("PRODUCT_LIST_FAILED")
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	run.Annotate(observability.F("count", len(products)))
	return products, nil
}

func (s *Service) ListCustomers(ctx context.Context, page application.Page) (_ []*domcustomer.Customer, err error) {
	page = page.Normalize()
	ctx, run := s.in.Start(ctx, useCaseCustomerList, "ListCustomers",
		attribute.Int("page.offset", page.Offset),
		attribute.Int("page.limit", page.Limit),
	)
	defer func() { run.End(err) }()

	customers, err := s.customers.List(ctx, page.Offset, page.Limit)
	if err != nil {
		run.Fail("CUSTOMER_LIST_FAILED")
		return nil, fmt.Errorf("catalog: list customers: %w", err)
	}
	run.Annotate(observability.F("count", len(customers)))
	return customers, nil
}

// UpdateCustomer replaces name and email; the email must stay unique.
func (s *Service) UpdateCustomer(ctx context.Context, cmd UpdateCustomerInput) (_ *domcustomer.Customer, err error) {
	ctx, run := s.in.Start(ctx, useCaseCustomerUpdate, "UpdateCustomer", attribute.String("customer.id", cmd.ID))
	run.Annotate(observability.F("customer_id", cmd.ID))
	defer func() { run.End(err) }()

	c, err := s.customers.Update(ctx, cmd.ID, func(c *domcustomer.Customer) error {
		return c.Update(cmd.Name, cmd.Email)
	})
	if err != nil {
		switch {
		case errors.Is(err, domcustomer.ErrNotFound):
			run.Fail("CUSTOMER_NOT_FOUND")
			return nil, err
		case errors.Is(err, domcustomer.ErrDuplicateEmail):
			run.Fail("DUPLICATE_EMAIL")
			return nil, err
		case errors.Is(err, errs.ErrInvalidRequest):
			run.Fail("CUSTOMER_INVALID")
			return nil, err
		}
		run.Fail("CUSTOMER_UPDATE_FAILED")
		return nil, fmt.Errorf("catalog: update customer: %w", err)
	}
	return c, nil
}

// DeleteCustomer removes a customer that has never ordered.
func (s *Service) DeleteCustomer(ctx context.Context, id string) (err error) {
	ctx, run := s.in.Start(ctx, useCaseCustomerDelete, "DeleteCustomer", attribute.String("customer.id", id))
	run.Annotate(observability.F("customer_id", id))
	defer func() { run.End(err) }()

	if _, err = s.customers.Get(ctx, id); err != nil {
		run.Fail("CUSTOMER_LOOKUP_FAILED")
		return err
	}
	hasOrders, err := s.refs.ExistsForCustomer(ctx, id)
	if err != nil {
		run.Fail("REFERENCE_CHECK_FAILED")
		return fmt.Errorf("catalog: delete customer: %w", err)
	}
	if hasOrders {
		run.Fail("CUSTOMER_HAS_ORDERS")
		return domcustomer.ErrHasOrders
	}
	if err = s.customers.Delete(ctx, id); err != nil {
		if errors.Is(err, domcustomer.ErrHasOrders) {
			run.Fail("CUSTOMER_HAS_ORDERS")
			return err
		}
		run.Fail("CUSTOMER_DELETE_FAILED")
		return fmt.Errorf("catalog: delete customer: %w", err)
	}
	return nil
}
