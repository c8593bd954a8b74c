package dms

import (
	"context"
	"database/sql"
	"testing"

	"github.com/docvault/docvault/pkg/rbac"
	"github.com/docvault/docvault/pkg/storage/postgres"
)

// NewTestDB opens an in-memory sqlite database with the RBAC and document
// schemas applied. The transfer suite builds on it too.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db := rbac.NewTestDB(t)
	if err := postgres.NewMigrator(db, Migrations()).Run(context.Background()); err != nil {
		t.Fatalf("Failed to apply document schema: %v", err)
	}
	return db
}
