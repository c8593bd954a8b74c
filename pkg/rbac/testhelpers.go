package rbac

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docvault/docvault/pkg/storage/postgres"
)

// NewTestDB opens an in-memory sqlite database with the RBAC schema
// applied through the regular migration runner. Shared by the dms and
// transfer test suites, which layer their own schema on top.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// The pool must not open a second connection; each sqlite :memory:
	// connection is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	if err := postgres.NewMigrator(db, Migrations()).Run(context.Background()); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}
