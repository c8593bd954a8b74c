package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Migration is a single versioned schema change. Versions must be unique
// across all registered sets; they are applied in ascending order.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrator applies pending migrations and records them in schema_migrations.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator creates a migrator over the given migration sets
func NewMigrator(db *sql.DB, sets ...[]Migration) *Migrator {
	var all []Migration
	for _, set := range sets {
		all = append(all, set...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Version < all[j].Version })
	return &Migrator{db: db, migrations: all}
}

// Run applies all migrations not yet recorded, each in its own transaction
func (m *Migrator) Run(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate applied migrations: %w", err)
	}
	rows.Close()

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Description, err)
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)`,
		mig.Version, mig.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
