package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is idempotent so the
// whole list is replayed on each start.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		full_name     TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'resident'
		              CHECK(role IN ('resident','chairman','accountant','secretary','admin')),
		password_hash TEXT NOT NULL DEFAULT '',
		onboarded     INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_phone ON users(phone) WHERE phone != ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email) WHERE email != ''`,

	`CREATE TABLE IF NOT EXISTS plots (
		id               TEXT PRIMARY KEY,
		number           TEXT NOT NULL UNIQUE,
		street           TEXT NOT NULL DEFAULT '',
		area_sqm         TEXT NOT NULL DEFAULT '0',
		cadastral_number TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS plot_owners (
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plot_id    TEXT NOT NULL REFERENCES plots(id) ON DELETE CASCADE,
		is_primary INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, plot_id)
	)`,
	// At most one primary plot per user.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_plot_owners_primary ON plot_owners(user_id) WHERE is_primary = 1`,
	`CREATE INDEX IF NOT EXISTS idx_plot_owners_plot ON plot_owners(plot_id)`,

	`CREATE TABLE IF NOT EXISTS memberships (
		user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		status     TEXT NOT NULL DEFAULT 'none'
		           CHECK(status IN ('none','pending','active','suspended','expelled')),
		since      TEXT,
		note       TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS appeals (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plot_id    TEXT REFERENCES plots(id) ON DELETE SET NULL,
		topic      TEXT NOT NULL,
		body       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'new'
		           CHECK(status IN ('new','in_progress','resolved','rejected')),
		response   TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appeals_user ON appeals(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appeals_status ON appeals(status)`,

	`CREATE TABLE IF NOT EXISTS charges (
		id          TEXT PRIMARY KEY,
		plot_id     TEXT NOT NULL REFERENCES plots(id) ON DELETE CASCADE,
		kind        TEXT NOT NULL
		            CHECK(kind IN ('membership','target','electricity','penalty')),
		period      TEXT NOT NULL,
		amount      TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_charges_plot ON charges(plot_id)`,

	`CREATE TABLE IF NOT EXISTS payment_confirmations (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plot_id         TEXT NOT NULL REFERENCES plots(id) ON DELETE CASCADE,
		amount          TEXT NOT NULL,
		paid_at         TEXT NOT NULL,
		purpose         TEXT NOT NULL,
		comment         TEXT NOT NULL DEFAULT '',
		attachment_name TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'pending'
		                CHECK(status IN ('pending','approved','rejected')),
		reviewer_id     TEXT REFERENCES users(id) ON DELETE SET NULL,
		review_note     TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		reviewed_at     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_confirmations_status ON payment_confirmations(status)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id              TEXT PRIMARY KEY,
		plot_id         TEXT NOT NULL REFERENCES plots(id) ON DELETE CASCADE,
		amount          TEXT NOT NULL,
		paid_at         TEXT NOT NULL,
		source          TEXT NOT NULL CHECK(source IN ('bank','cash','confirmation')),
		confirmation_id TEXT REFERENCES payment_confirmations(id) ON DELETE SET NULL,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_plot ON payments(plot_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_confirmation ON payments(confirmation_id) WHERE confirmation_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS electricity_readings (
		id           TEXT PRIMARY KEY,
		plot_id      TEXT NOT NULL REFERENCES plots(id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		period       TEXT NOT NULL,
		value        TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		UNIQUE (plot_id, period)
	)`,

	`CREATE TABLE IF NOT EXISTS announcements (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		body         TEXT NOT NULL DEFAULT '',
		audience     TEXT NOT NULL DEFAULT 'all' CHECK(audience IN ('all','members')),
		author_id    TEXT NOT NULL DEFAULT '',
		published_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		body         TEXT NOT NULL DEFAULT '',
		meeting_kind TEXT NOT NULL DEFAULT '',
		decided_on   TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		url          TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		members_only INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS onboarding_drafts (
		user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		full_name  TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		plots_json TEXT NOT NULL DEFAULT '[]',
		consent    INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
}
