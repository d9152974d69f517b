package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ProductRepository struct{ db *pgxpool.Pool }

const productColumns = `id, name, stock, price::text, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Stock, &price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	d, err := parseDecimal(price)
	if err != nil {
		return nil, err
	}
	p.Price = d
	return &p, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return p, err
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, stock, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
		p.ID, p.Name, p.Stock, p.Price.String(), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if code, _ := pgError(err); code == codeUniqueViolation {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("postgres: insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, id string, fn func(p *domain.Product) error) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: lock product: %w", err)
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.ID = id
	p.UpdatedAt = time.Now().UTC()

	if _, err := tx.Exec(ctx, `
		UPDATE products SET name = $2, stock = $3, price = $4::numeric, updated_at = $5
		WHERE id = $1`,
		p.ID, p.Name, p.Stock, p.Price.String(), p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("postgres: update product: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgError(err); code == codeForeignKeyViolation {
			return domain.ErrProductInUse
		}
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reserve is a single conditional decrement; the row lock taken by UPDATE
// serializes concurrent reservations of the same product.
func (r *ProductRepository) Reserve(ctx context.Context, productID string, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, domain.ErrInvalidQuantity
	}

	var price string
	err := r.db.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING price::text`, productID, quantity).Scan(&price)
	if err == nil {
		return parseDecimal(price)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("postgres: reserve: %w", err)
	}

	var stock int
	err = r.db.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return decimal.Zero, domain.ErrNotFound
	case err != nil:
		return decimal.Zero, fmt.Errorf("postgres: reserve: read stock: %w", err)
	}
	return decimal.Zero, domain.InsufficientStockError(productID, quantity, stock)
}

func (r *ProductRepository) Release(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, quantity)
	if err != nil {
		return fmt.Errorf("postgres: release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	return products, nil
}
