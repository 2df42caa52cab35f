package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteElectricityRepo implements ElectricityRepo using a SQLite database.
type SQLiteElectricityRepo struct {
	db db.DBTX
}

func NewSQLiteElectricityRepo(conn db.DBTX) *SQLiteElectricityRepo {
	return &SQLiteElectricityRepo{db: conn}
}

const readingColumns = `id, plot_id, user_id, period, value, submitted_at`

func (r *SQLiteElectricityRepo) Create(ctx context.Context, rd *domain.ElectricityReading) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO electricity_readings (`+readingColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rd.ID, rd.PlotID, rd.UserID, rd.Period, rd.Value.String(), formatTime(rd.SubmittedAt))
	return wrapConstraint(err, "inserting electricity reading")
}

// Latest returns the reading with the greatest period for the plot.
func (r *SQLiteElectricityRepo) Latest(ctx context.Context, plotID string) (*domain.ElectricityReading, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+readingColumns+` FROM electricity_readings
		WHERE plot_id = ? ORDER BY period DESC LIMIT 1`, plotID)
	return scanReading(row)
}

func (r *SQLiteElectricityRepo) GetByPeriod(ctx context.Context, plotID, period string) (*domain.ElectricityReading, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+readingColumns+` FROM electricity_readings
		WHERE plot_id = ? AND period = ?`, plotID, period)
	return scanReading(row)
}

func (r *SQLiteElectricityRepo) ListByPlots(ctx context.Context, plotIDs []string) ([]*domain.ElectricityReading, error) {
	if len(plotIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(plotIDs)
	rows, err := r.db.QueryContext(ctx, `SELECT `+readingColumns+` FROM electricity_readings
		WHERE plot_id IN (`+in+`) ORDER BY period DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing electricity readings: %w", err)
	}
	defer rows.Close()

	var readings []*domain.ElectricityReading
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating electricity readings: %w", err)
	}
	return readings, nil
}

func scanReading(row rowScanner) (*domain.ElectricityReading, error) {
	var rd domain.ElectricityReading
	var value, submittedAt string
	if err := row.Scan(&rd.ID, &rd.PlotID, &rd.UserID, &rd.Period, &value, &submittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("electricity reading: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning electricity reading: %w", err)
	}
	var err error
	if rd.Value, err = parseDecimal(value, "value"); err != nil {
		return nil, err
	}
	if rd.SubmittedAt, err = parseTime(submittedAt, "submitted_at"); err != nil {
		return nil, err
	}
	return &rd, nil
}
