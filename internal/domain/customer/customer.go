package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound       = fmt.Errorf("customer: %w", errs.ErrNotFound)
	ErrInvalidName    = fmt.Errorf("customer: name is required: %w", errs.ErrInvalidRequest)
	ErrInvalidEmail   = fmt.Errorf("customer: email is invalid: %w", errs.ErrInvalidRequest)
	ErrDuplicateEmail = fmt.Errorf("customer: email already registered: %w", errs.ErrConflict)
	ErrHasOrders      = fmt.Errorf("customer: customer has orders: %w", errs.ErrConflict)
)

var validate = validator.New()

type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

func New(id, name, email string) (*Customer, error) {
	name, email, err := normalize(name, email)
	if err != nil {
		return nil, err
	}
	return &Customer{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Update replaces name and email after the same checks New applies.
func (c *Customer) Update(name, email string) error {
	name, email, err := normalize(name, email)
	if err != nil {
		return err
	}
	c.Name, c.Email = name, email
	return nil
}

func normalize(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", ErrInvalidName
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return name, email, nil
}

type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	Insert(ctx context.Context, c *Customer) error
	// List returns customers ordered by creation time, then id.
	List(ctx context.Context, offset, limit int) ([]*Customer, error)
	// Update applies fn to the stored customer and persists the result if fn
	// returns nil. A changed email must stay unique.
	Update(ctx context.Context, id string, fn func(c *Customer) error) (*Customer, error)
	// Delete removes the customer. Stores that enforce references fail with
	// ErrHasOrders while an order still points at it.
	Delete(ctx context.Context, id string) error
}
