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

// SQLitePlotRepo implements PlotRepo using a SQLite database.
type SQLitePlotRepo struct {
	db db.DBTX
}

func NewSQLitePlotRepo(conn db.DBTX) *SQLitePlotRepo {
	return &SQLitePlotRepo{db: conn}
}

const plotColumns = `p.id, p.number, p.street, p.area_sqm, p.cadastral_number, p.created_at`

func (r *SQLitePlotRepo) Create(ctx context.Context, p *domain.Plot) error {
	query := `INSERT INTO plots (id, number, street, area_sqm, cadastral_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Number, p.Street, p.AreaSqm.String(), p.CadastralNumber, formatTime(p.CreatedAt))
	return wrapConstraint(err, "inserting plot")
}

func (r *SQLitePlotRepo) GetByID(ctx context.Context, id string) (*domain.Plot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+plotColumns+` FROM plots p WHERE p.id = ?`, id)
	return scanPlot(row)
}

func (r *SQLitePlotRepo) GetByNumber(ctx context.Context, number string) (*domain.Plot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+plotColumns+` FROM plots p WHERE p.number = ?`, number)
	return scanPlot(row)
}

func (r *SQLitePlotRepo) List(ctx context.Context) ([]*domain.Plot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+plotColumns+` FROM plots p ORDER BY p.number`)
	if err != nil {
		return nil, fmt.Errorf("listing plots: %w", err)
	}
	defer rows.Close()

	var plots []*domain.Plot
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, err
		}
		plots = append(plots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plots: %w", err)
	}
	return plots, nil
}

// ListByUser returns the user's plots, primary first.
func (r *SQLitePlotRepo) ListByUser(ctx context.Context, userID string) ([]*domain.UserPlot, error) {
	query := `SELECT ` + plotColumns + `, o.is_primary
		FROM plots p JOIN plot_owners o ON o.plot_id = p.id
		WHERE o.user_id = ?
		ORDER BY o.is_primary DESC, p.number`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing plots by user: %w", err)
	}
	defer rows.Close()

	var plots []*domain.UserPlot
	for rows.Next() {
		var up domain.UserPlot
		var area, createdAt string
		var primary int
		if err := rows.Scan(&up.ID, &up.Number, &up.Street, &area, &up.CadastralNumber, &createdAt, &primary); err != nil {
			return nil, fmt.Errorf("scanning user plot: %w", err)
		}
		if up.AreaSqm, err = parseDecimal(area, "area_sqm"); err != nil {
			return nil, err
		}
		if up.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		up.IsPrimary = intToBool(primary)
		plots = append(plots, &up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user plots: %w", err)
	}
	return plots, nil
}

func (r *SQLitePlotRepo) ListOwners(ctx context.Context) ([]domain.PlotOwner, error) {
	query := `SELECT o.plot_id, o.user_id, u.full_name, o.is_primary
		FROM plot_owners o JOIN users u ON u.id = o.user_id
		ORDER BY o.plot_id, o.is_primary DESC, u.full_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing plot owners: %w", err)
	}
	defer rows.Close()

	var owners []domain.PlotOwner
	for rows.Next() {
		var o domain.PlotOwner
		var primary int
		if err := rows.Scan(&o.PlotID, &o.UserID, &o.FullName, &primary); err != nil {
			return nil, fmt.Errorf("scanning plot owner: %w", err)
		}
		o.IsPrimary = intToBool(primary)
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plot owners: %w", err)
	}
	return owners, nil
}

func (r *SQLitePlotRepo) AddOwner(ctx context.Context, userID, plotID string, primary bool) error {
	query := `INSERT INTO plot_owners (user_id, plot_id, is_primary, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, userID, plotID, boolToInt(primary), formatTime(time.Now()))
	return wrapConstraint(err, "adding plot owner")
}

func (r *SQLitePlotRepo) IsOwner(ctx context.Context, userID, plotID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM plot_owners WHERE user_id = ? AND plot_id = ?`, userID, plotID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking plot owner: %w", err)
	}
	return n > 0, nil
}

func (r *SQLitePlotRepo) SetPrimary(ctx context.Context, userID, plotID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE plot_owners SET is_primary = 0 WHERE user_id = ? AND plot_id != ?`, userID, plotID); err != nil {
		return fmt.Errorf("clearing primary plot: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE plot_owners SET is_primary = 1 WHERE user_id = ? AND plot_id = ?`, userID, plotID)
	if err != nil {
		return fmt.Errorf("setting primary plot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plot ownership: %w", ErrNotFound)
	}
	return nil
}

func scanPlot(row rowScanner) (*domain.Plot, error) {
	var p domain.Plot
	var area, createdAt string
	err := row.Scan(&p.ID, &p.Number, &p.Street, &area, &p.CadastralNumber, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plot: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning plot: %w", err)
	}
	if p.AreaSqm, err = parseDecimal(area, "area_sqm"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &p, nil
}
