package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// SQLiteUserRepo implements UserRepo using a SQLite database.
type SQLiteUserRepo struct {
	db db.DBTX
}

func NewSQLiteUserRepo(conn db.DBTX) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: conn}
}

const userColumns = `id, full_name, phone, email, role, password_hash, onboarded, created_at, updated_at`

func (r *SQLiteUserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.FullName,
		u.Phone,
		u.Email,
		string(u.Role),
		u.PasswordHash,
		boolToInt(u.Onboarded),
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	return wrapConstraint(err, "inserting user")
}

func (r *SQLiteUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByLogin matches a normalized phone or e-mail.
func (r *SQLiteUserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	login = domain.NormalizeLogin(login)
	if login == "" {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = ? OR LOWER(email) = ? LIMIT 1`, login, login)
	return scanUser(row)
}

func (r *SQLiteUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY full_name, created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

func (r *SQLiteUserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET full_name = ?, phone = ?, email = ?, role = ?, password_hash = ?,
		onboarded = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		u.FullName,
		u.Phone,
		u.Email,
		string(u.Role),
		u.PasswordHash,
		boolToInt(u.Onboarded),
		formatTime(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		return wrapConstraint(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role, createdAt, updatedAt string
	var onboarded int
	err := row.Scan(&u.ID, &u.FullName, &u.Phone, &u.Email, &role, &u.PasswordHash,
		&onboarded, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Role = domain.Role(role)
	u.Onboarded = intToBool(onboarded)
	if u.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &u, nil
}
