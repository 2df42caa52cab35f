package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/auth"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
)

// SQLiteStore keeps sessions in the sessions table. Expired rows are
// removed lazily on lookup and on every Create.
type SQLiteStore struct {
	db  db.DBTX
	now func() time.Time
}

func NewSQLiteStore(conn db.DBTX) *SQLiteStore {
	return &SQLiteStore{db: conn, now: time.Now}
}

func (s *SQLiteStore) Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	token, err := auth.NewToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := &Session{Token: token, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("pruning sessions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.CreatedAt.Format(time.RFC3339), sess.ExpiresAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) Get(ctx context.Context, token string) (*Session, error) {
	var sess Session
	var createdAt, expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sess.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	if sess.Expired(s.now()) {
		_ = s.Delete(ctx, token)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

// Close is a no-op; the database handle is owned by the caller.
func (s *SQLiteStore) Close() error { return nil }
