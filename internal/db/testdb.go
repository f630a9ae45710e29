package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// NewTestDB creates a fresh file-backed SQLite database with the schema applied.
// A file (rather than :memory:) lets every pooled connection see the same data.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"), 10*time.Second)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
