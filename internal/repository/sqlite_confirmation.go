package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteConfirmationRepo implements ConfirmationRepo using a SQLite database.
type SQLiteConfirmationRepo struct {
	db db.DBTX
}

func NewSQLiteConfirmationRepo(conn db.DBTX) *SQLiteConfirmationRepo {
	return &SQLiteConfirmationRepo{db: conn}
}

const confirmationColumns = `id, user_id, plot_id, amount, paid_at, purpose, comment, attachment_name,
	status, reviewer_id, review_note, created_at, reviewed_at`

func (r *SQLiteConfirmationRepo) Create(ctx context.Context, c *domain.PaymentConfirmation) error {
	query := `INSERT INTO payment_confirmations (` + confirmationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.PlotID, c.Amount.String(), formatTime(c.PaidAt), c.Purpose, c.Comment,
		c.AttachmentName, string(c.Status), nullableString(c.ReviewerID), c.ReviewNote,
		formatTime(c.CreatedAt), nullableTimeToString(c.ReviewedAt, time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting payment confirmation: %w", err)
	}
	return nil
}

func (r *SQLiteConfirmationRepo) GetByID(ctx context.Context, id string) (*domain.PaymentConfirmation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+confirmationColumns+` FROM payment_confirmations WHERE id = ?`, id)
	return scanConfirmation(row)
}

func (r *SQLiteConfirmationRepo) ListByUser(ctx context.Context, userID string) ([]*domain.PaymentConfirmation, error) {
	return r.query(ctx, `SELECT `+confirmationColumns+` FROM payment_confirmations
		WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *SQLiteConfirmationRepo) List(ctx context.Context, status domain.ConfirmationStatus) ([]*domain.PaymentConfirmation, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+confirmationColumns+` FROM payment_confirmations ORDER BY created_at DESC`)
	}
	return r.query(ctx, `SELECT `+confirmationColumns+` FROM payment_confirmations
		WHERE status = ? ORDER BY created_at`, string(status))
}

func (r *SQLiteConfirmationRepo) Update(ctx context.Context, c *domain.PaymentConfirmation) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payment_confirmations
		SET status = ?, reviewer_id = ?, review_note = ?, reviewed_at = ? WHERE id = ?`,
		string(c.Status), nullableString(c.ReviewerID), c.ReviewNote,
		nullableTimeToString(c.ReviewedAt, time.RFC3339), c.ID)
	if err != nil {
		return fmt.Errorf("updating payment confirmation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment confirmation: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteConfirmationRepo) query(ctx context.Context, query string, args ...any) ([]*domain.PaymentConfirmation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payment confirmations: %w", err)
	}
	defer rows.Close()

	var out []*domain.PaymentConfirmation
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment confirmations: %w", err)
	}
	return out, nil
}

func scanConfirmation(row rowScanner) (*domain.PaymentConfirmation, error) {
	var c domain.PaymentConfirmation
	var amount, paidAt, status, createdAt string
	var reviewerID, reviewedAt sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.PlotID, &amount, &paidAt, &c.Purpose, &c.Comment,
		&c.AttachmentName, &status, &reviewerID, &c.ReviewNote, &createdAt, &reviewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment confirmation: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning payment confirmation: %w", err)
	}
	c.Status = domain.ConfirmationStatus(status)
	c.ReviewerID = stringPtr(reviewerID)
	c.ReviewedAt = parseNullableTime(reviewedAt, time.RFC3339)
	if c.Amount, err = parseDecimal(amount, "amount"); err != nil {
		return nil, err
	}
	if c.PaidAt, err = parseTime(paidAt, "paid_at"); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
