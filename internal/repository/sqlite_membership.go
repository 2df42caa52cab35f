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

// SQLiteMembershipRepo implements MembershipRepo using a SQLite database.
type SQLiteMembershipRepo struct {
	db db.DBTX
}

func NewSQLiteMembershipRepo(conn db.DBTX) *SQLiteMembershipRepo {
	return &SQLiteMembershipRepo{db: conn}
}

func (r *SQLiteMembershipRepo) Get(ctx context.Context, userID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, status, since, note, updated_at FROM memberships WHERE user_id = ?`, userID)

	var m domain.Membership
	var status, updatedAt string
	var since sql.NullString
	if err := row.Scan(&m.UserID, &status, &since, &m.Note, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	m.Status = domain.MembershipStatus(status)
	m.Since = parseNullableTime(since, dateLayout)
	var err error
	if m.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteMembershipRepo) Upsert(ctx context.Context, m *domain.Membership) error {
	query := `INSERT INTO memberships (user_id, status, since, note, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			status = excluded.status, since = excluded.since,
			note = excluded.note, updated_at = excluded.updated_at`
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		m.UserID, string(m.Status), nullableTimeToString(m.Since, dateLayout), m.Note, formatTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting membership: %w", err)
	}
	return nil
}
