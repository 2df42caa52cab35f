package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteDraftRepo persists onboarding drafts, one per user. The plot list
// is stored as a JSON array.
type SQLiteDraftRepo struct {
	db db.DBTX
}

func NewSQLiteDraftRepo(conn db.DBTX) *SQLiteDraftRepo {
	return &SQLiteDraftRepo{db: conn}
}

func (r *SQLiteDraftRepo) Get(ctx context.Context, userID string) (*domain.OnboardingDraft, error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, full_name, phone, email, plots_json, consent, updated_at
		FROM onboarding_drafts WHERE user_id = ?`, userID)

	var d domain.OnboardingDraft
	var plotsJSON, updatedAt string
	var consent int
	if err := row.Scan(&d.UserID, &d.FullName, &d.Phone, &d.Email, &plotsJSON, &consent, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("onboarding draft: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning onboarding draft: %w", err)
	}
	if err := json.Unmarshal([]byte(plotsJSON), &d.Plots); err != nil {
		return nil, fmt.Errorf("decoding draft plots: %w", err)
	}
	d.Consent = intToBool(consent)
	var err error
	if d.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SQLiteDraftRepo) Upsert(ctx context.Context, d *domain.OnboardingDraft) error {
	plots := d.Plots
	if plots == nil {
		plots = []domain.DraftPlot{}
	}
	plotsJSON, err := json.Marshal(plots)
	if err != nil {
		return fmt.Errorf("encoding draft plots: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO onboarding_drafts
		(user_id, full_name, phone, email, plots_json, consent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name, phone = excluded.phone, email = excluded.email,
			plots_json = excluded.plots_json, consent = excluded.consent, updated_at = excluded.updated_at`,
		d.UserID, d.FullName, d.Phone, d.Email, string(plotsJSON), boolToInt(d.Consent), formatTime(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting onboarding draft: %w", err)
	}
	return nil
}
