package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteContentRepo stores announcements, board decisions and documents.
type SQLiteContentRepo struct {
	db db.DBTX
}

func NewSQLiteContentRepo(conn db.DBTX) *SQLiteContentRepo {
	return &SQLiteContentRepo{db: conn}
}

func (r *SQLiteContentRepo) CreateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO announcements (id, title, body, audience, author_id, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Body, string(a.Audience), a.AuthorID, formatTime(a.PublishedAt))
	if err != nil {
		return fmt.Errorf("inserting announcement: %w", err)
	}
	return nil
}

// ListAnnouncements returns announcements for the given audiences, newest
// first. No audiences means every announcement.
func (r *SQLiteContentRepo) ListAnnouncements(ctx context.Context, audiences ...domain.Audience) ([]*domain.Announcement, error) {
	query := `SELECT id, title, body, audience, author_id, published_at FROM announcements`
	var args []any
	if len(audiences) > 0 {
		vals := make([]string, len(audiences))
		for i, a := range audiences {
			vals[i] = string(a)
		}
		in, inArgs := inClause(vals)
		query += ` WHERE audience IN (` + in + `)`
		args = inArgs
	}
	query += ` ORDER BY published_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	defer rows.Close()

	var out []*domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		var audience, publishedAt string
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &audience, &a.AuthorID, &publishedAt); err != nil {
			return nil, fmt.Errorf("scanning announcement: %w", err)
		}
		a.Audience = domain.Audience(audience)
		if a.PublishedAt, err = parseTime(publishedAt, "published_at"); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating announcements: %w", err)
	}
	return out, nil
}

func (r *SQLiteContentRepo) CreateDecision(ctx context.Context, d *domain.Decision) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO decisions (id, title, body, meeting_kind, decided_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Body, d.MeetingKind, d.DecidedOn.Format(dateLayout), formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	return nil
}

func (r *SQLiteContentRepo) ListDecisions(ctx context.Context) ([]*domain.Decision, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, body, meeting_kind, decided_on, created_at
		FROM decisions ORDER BY decided_on DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Decision
	for rows.Next() {
		var d domain.Decision
		var decidedOn, createdAt string
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &d.MeetingKind, &decidedOn, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		if d.DecidedOn, err = time.Parse(dateLayout, decidedOn); err != nil {
			return nil, fmt.Errorf("parsing decided_on: %w", err)
		}
		if d.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return out, nil
}

func (r *SQLiteContentRepo) CreateDocument(ctx context.Context, d *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO documents (id, title, url, category, members_only, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.URL, d.Category, boolToInt(d.MembersOnly), formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (r *SQLiteContentRepo) ListDocuments(ctx context.Context, includeMembersOnly bool) ([]*domain.Document, error) {
	query := `SELECT id, title, url, category, members_only, created_at FROM documents`
	if !includeMembersOnly {
		query += ` WHERE members_only = 0`
	}
	query += ` ORDER BY category, title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []*domain.Document
	for rows.Next() {
		var d domain.Document
		var membersOnly int
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Title, &d.URL, &d.Category, &membersOnly, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.MembersOnly = intToBool(membersOnly)
		if d.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}
