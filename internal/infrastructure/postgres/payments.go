package postgres

import (
	"context"
	"errors"
	"fmt"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct{ db *pgxpool.Pool }

const paymentColumns = `id, order_id, amount::text, method, paid_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount string
		method string
	)
	if err := row.Scan(&p.ID, &p.OrderID, &amount, &method, &p.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan payment: %w", err)
	}
	d, err := parseDecimal(amount)
	if err != nil {
		return nil, err
	}
	p.Amount = d
	p.Method = domain.Method(method)
	return &p, nil
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (r *PaymentRepository) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
}

func (r *PaymentRepository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: payment exists: %w", err)
	}
	return exists, nil
}

// Record inserts the payment and advances the order in one transaction. The
// unique constraint on payments.order_id decides concurrent payers.
func (r *PaymentRepository) Record(ctx context.Context, p *domain.Payment, o *domorder.Order, from domorder.Status) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, amount, method, paid_at)
		VALUES ($1, $2, $3::numeric, $4, $5)`,
		p.ID, p.OrderID, p.Amount.String(), string(p.Method), p.PaidAt); err != nil {
		if code, constraint := pgError(err); code == codeUniqueViolation && constraint == "payments_order_id_key" {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("postgres: insert payment: %w", err)
	}

	if err := casStatus(ctx, tx, o.ID, from, o.Status); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
