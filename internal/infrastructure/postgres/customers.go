package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id, name, email, created_at`

type CustomerRepository struct{ db *pgxpool.Pool }

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("postgres: get customer: %w", err)
	}
	return c, err
}

func (r *CustomerRepository) Insert(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO customers (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Email, c.CreatedAt)
	if err != nil {
		if isDuplicateEmail(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("postgres: insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) List(ctx context.Context, offset, limit int) ([]*domain.Customer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Customer, error) {
		return scanCustomer(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list customers: %w", err)
	}
	return customers, nil
}

func (r *CustomerRepository) Update(ctx context.Context, id string, fn func(c *domain.Customer) error) (*domain.Customer, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanCustomer(tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: lock customer: %w", err)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.ID = id

	if _, err := tx.Exec(ctx, `UPDATE customers SET name = $2, email = $3 WHERE id = $1`, c.ID, c.Name, c.Email); err != nil {
		if isDuplicateEmail(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("postgres: update customer: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgError(err); code == codeForeignKeyViolation {
			return domain.ErrHasOrders
		}
		return fmt.Errorf("postgres: delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isDuplicateEmail(err error) bool {
	code, constraint := pgError(err)
	return code == codeUniqueViolation && constraint == "customers_email_key"
}
