package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct{ db *pgxpool.Pool }

// rowQuerier is satisfied by both the pool and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
		o.ID, o.CustomerID, string(o.Status), o.Total.String(), o.CreatedAt, o.UpdatedAt); err != nil {
		if code, constraint := pgError(err); code == codeUniqueViolation && constraint == "orders_pkey" {
			return domain.ErrConflict
		}
		return fmt.Errorf("postgres: insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6::numeric)`,
			l.ID, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice.String())
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

const orderColumns = `id, customer_id, status, total::text, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
		total  string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &status, &total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	d, err := parseDecimal(total)
	if err != nil {
		return nil, err
	}
	o.Total = d
	return &o, nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	if err := r.loadLines(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT order_id, id, product_id, quantity, unit_price::text
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("postgres: load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			l       domain.Line
			price   string
		)
		if err := rows.Scan(&orderID, &l.ID, &l.ProductID, &l.Quantity, &price); err != nil {
			return fmt.Errorf("postgres: scan order item: %w", err)
		}
		if l.UnitPrice, err = parseDecimal(price); err != nil {
			return err
		}
		if o := byID[orderID]; o != nil {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: load order items: %w", err)
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	return casStatus(ctx, r.db, id, from, to)
}

// casStatus moves id from -> to, distinguishing a missing order from a stale one.
func casStatus(ctx context.Context, db rowQuerier, id string, from, to domain.Status) error {
	var updated bool
	err := db.QueryRow(ctx, `
		WITH upd AS (
			UPDATE orders SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2
			RETURNING id
		)
		SELECT true FROM upd
		UNION ALL
		SELECT false FROM orders WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM upd)`,
		id, string(from), string(to), time.Now().UTC()).Scan(&updated)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case err != nil:
		return fmt.Errorf("postgres: update order status: %w", err)
	case !updated:
		return domain.ErrStaleStatus
	}
	return nil
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE status = $1
		ORDER BY created_at, id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) ExistsLineForProduct(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: product references: %w", err)
	}
	return exists, nil
}

func (r *OrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) ExistsForCustomer(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE customer_id = $1)`, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: customer references: %w", err)
	}
	return exists, nil
}
