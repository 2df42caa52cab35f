package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"users", "plots", "plot_owners", "memberships", "appeals", "charges",
		"payments", "payment_confirmations", "electricity_readings",
		"announcements", "decisions", "documents", "onboarding_drafts", "sessions",
	}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_SinglePrimaryPlotPerUser(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := db.Exec(`INSERT INTO users (id, phone, created_at, updated_at) VALUES ('u1', '+7900', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO plots (id, number, created_at) VALUES ('p1', '1', ?), ('p2', '2', ?)`, now, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO plot_owners (user_id, plot_id, is_primary, created_at) VALUES ('u1', 'p1', 1, ?)`, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO plot_owners (user_id, plot_id, is_primary, created_at) VALUES ('u1', 'p2', 1, ?)`, now)
	assert.Error(t, err, "second primary plot must violate the partial unique index")
}

func TestMigrate_RejectsUnknownRole(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := db.Exec(`INSERT INTO users (id, email, role, created_at, updated_at) VALUES ('u1', 'a@b.c', 'root', ?, ?)`, now, now)
	assert.Error(t, err)
}
