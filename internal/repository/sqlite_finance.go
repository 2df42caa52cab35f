package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteChargeRepo implements ChargeRepo using a SQLite database.
type SQLiteChargeRepo struct {
	db db.DBTX
}

func NewSQLiteChargeRepo(conn db.DBTX) *SQLiteChargeRepo {
	return &SQLiteChargeRepo{db: conn}
}

const chargeColumns = `id, plot_id, kind, period, amount, description, created_at`

func (r *SQLiteChargeRepo) Create(ctx context.Context, c *domain.Charge) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO charges (`+chargeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PlotID, string(c.Kind), c.Period, c.Amount.String(), c.Description, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting charge: %w", err)
	}
	return nil
}

func (r *SQLiteChargeRepo) ListByPlots(ctx context.Context, plotIDs []string) ([]*domain.Charge, error) {
	if len(plotIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(plotIDs)
	return r.query(ctx, `SELECT `+chargeColumns+` FROM charges WHERE plot_id IN (`+in+`)
		ORDER BY period DESC, created_at DESC`, args...)
}

func (r *SQLiteChargeRepo) ListAll(ctx context.Context) ([]*domain.Charge, error) {
	return r.query(ctx, `SELECT `+chargeColumns+` FROM charges ORDER BY period DESC, created_at DESC`)
}

func (r *SQLiteChargeRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Charge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing charges: %w", err)
	}
	defer rows.Close()

	var charges []*domain.Charge
	for rows.Next() {
		var c domain.Charge
		var kind, amount, createdAt string
		if err := rows.Scan(&c.ID, &c.PlotID, &kind, &c.Period, &amount, &c.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning charge: %w", err)
		}
		c.Kind = domain.ChargeKind(kind)
		if c.Amount, err = parseDecimal(amount, "amount"); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		charges = append(charges, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating charges: %w", err)
	}
	return charges, nil
}

// SQLitePaymentRepo implements PaymentRepo using a SQLite database.
type SQLitePaymentRepo struct {
	db db.DBTX
}

func NewSQLitePaymentRepo(conn db.DBTX) *SQLitePaymentRepo {
	return &SQLitePaymentRepo{db: conn}
}

const paymentColumns = `id, plot_id, amount, paid_at, source, confirmation_id, created_at`

func (r *SQLitePaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PlotID, p.Amount.String(), formatTime(p.PaidAt), string(p.Source),
		nullableString(p.ConfirmationID), formatTime(p.CreatedAt))
	return wrapConstraint(err, "inserting payment")
}

func (r *SQLitePaymentRepo) ListByPlots(ctx context.Context, plotIDs []string) ([]*domain.Payment, error) {
	if len(plotIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(plotIDs)
	return r.query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE plot_id IN (`+in+`) ORDER BY paid_at DESC`, args...)
}

func (r *SQLitePaymentRepo) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	return r.query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC`)
}

func (r *SQLitePaymentRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		var amount, paidAt, source, createdAt string
		var confirmationID sql.NullString
		if err := rows.Scan(&p.ID, &p.PlotID, &amount, &paidAt, &source, &confirmationID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		p.Source = domain.PaymentSource(source)
		p.ConfirmationID = stringPtr(confirmationID)
		if p.Amount, err = parseDecimal(amount, "amount"); err != nil {
			return nil, err
		}
		if p.PaidAt, err = parseTime(paidAt, "paid_at"); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return payments, nil
}
