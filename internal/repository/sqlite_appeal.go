package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteAppealRepo implements AppealRepo using a SQLite database.
type SQLiteAppealRepo struct {
	db db.DBTX
}

func NewSQLiteAppealRepo(conn db.DBTX) *SQLiteAppealRepo {
	return &SQLiteAppealRepo{db: conn}
}

const appealColumns = `id, user_id, plot_id, topic, body, status, response, created_at, updated_at`

func (r *SQLiteAppealRepo) Create(ctx context.Context, a *domain.Appeal) error {
	query := `INSERT INTO appeals (` + appealColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, nullableString(a.PlotID), a.Topic, a.Body, string(a.Status), a.Response,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting appeal: %w", err)
	}
	return nil
}

func (r *SQLiteAppealRepo) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appealColumns+` FROM appeals WHERE id = ?`, id)
	return scanAppeal(row)
}

func (r *SQLiteAppealRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Appeal, error) {
	return r.query(ctx, `SELECT `+appealColumns+` FROM appeals WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *SQLiteAppealRepo) List(ctx context.Context, status domain.AppealStatus) ([]*domain.Appeal, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+appealColumns+` FROM appeals ORDER BY created_at DESC`)
	}
	return r.query(ctx, `SELECT `+appealColumns+` FROM appeals WHERE status = ? ORDER BY created_at DESC`, string(status))
}

func (r *SQLiteAppealRepo) Update(ctx context.Context, a *domain.Appeal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appeals SET status = ?, response = ?, updated_at = ? WHERE id = ?`,
		string(a.Status), a.Response, formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("updating appeal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("appeal: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteAppealRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Appeal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing appeals: %w", err)
	}
	defer rows.Close()

	var appeals []*domain.Appeal
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		appeals = append(appeals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appeals: %w", err)
	}
	return appeals, nil
}

func scanAppeal(row rowScanner) (*domain.Appeal, error) {
	var a domain.Appeal
	var plotID sql.NullString
	var status, createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.UserID, &plotID, &a.Topic, &a.Body, &status, &a.Response, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appeal: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning appeal: %w", err)
	}
	a.PlotID = stringPtr(plotID)
	a.Status = domain.AppealStatus(status)
	if a.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &a, nil
}
