package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iliyamo/tenant-auth/internal/model"
)

// testSchema mirrors the MySQL migrations in SQLite form.  Foreign keys use
// RESTRICT semantics so the FK-blocked delete behaviour can be exercised.
const testSchema = `
	CREATE TABLE tenants (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		address    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'customer',
		tenant_id     INTEGER REFERENCES tenants(id) ON DELETE RESTRICT,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	);

	CREATE TABLE refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);
`

// testDB creates a temporary SQLite database with the schema applied.  The
// database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "tenant-auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}
	return db
}

// seedUser inserts a user directly and returns it.
func seedUser(t *testing.T, db *sql.DB, email, role string) model.User {
	t.Helper()

	repo := NewUserRepo(db)
	u := model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvabcdefghij",
		Role:         role,
	}
	id, err := repo.Create(context.Background(), &u)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	u.ID = id
	return u
}

// seedToken inserts a refresh-token row for a user and returns its id.
func seedToken(t *testing.T, db *sql.DB, userID uint64, expiresAt time.Time) uint64 {
	t.Helper()

	id, err := NewTokenRepo(db).Create(context.Background(), userID, expiresAt)
	if err != nil {
		t.Fatalf("seeding refresh token: %v", err)
	}
	return id
}
