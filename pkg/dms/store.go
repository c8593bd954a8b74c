package dms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// Store provides the document hierarchy operations. Every read, update,
// and delete takes the account id explicitly; a lookup that misses or hits
// a row from another account reports not-found.
type Store struct {
	db *sql.DB
}

// NewStore creates a hierarchy store backed by db
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for composed components
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateSection creates a top-level container within an account
func (s *Store) CreateSection(ctx context.Context, accountID, name, description string, position int, createdBy string) (*Section, error) {
	now := time.Now().UTC()
	section := &Section{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Name:        name,
		Description: description,
		Position:    position,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sections (id, account_id, name, description, position, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		section.ID, section.AccountID, section.Name, section.Description,
		section.Position, section.CreatedBy, section.CreatedAt, section.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}
	return section, nil
}

// GetSection retrieves a section scoped to its account
func (s *Store) GetSection(ctx context.Context, accountID, sectionID string) (*Section, error) {
	var sec Section
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, description, position, created_by, created_at, updated_at
		FROM sections WHERE id = $1 AND account_id = $2`, sectionID, accountID).Scan(
		&sec.ID, &sec.AccountID, &sec.Name, &sec.Description,
		&sec.Position, &sec.CreatedBy, &sec.CreatedAt, &sec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("section not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return &sec, nil
}

// ListSections lists an account's sections in display order
func (s *Store) ListSections(ctx context.Context, accountID string, limit, offset int) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, name, description, position, created_by, created_at, updated_at
		FROM sections WHERE account_id = $1
		ORDER BY position ASC, name ASC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(
			&sec.ID, &sec.AccountID, &sec.Name, &sec.Description,
			&sec.Position, &sec.CreatedBy, &sec.CreatedAt, &sec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// UpdateSection applies partial changes to a section
func (s *Store) UpdateSection(ctx context.Context, accountID, sectionID string, update SectionUpdate) (*Section, error) {
	section, err := s.GetSection(ctx, accountID, sectionID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		section.Name = *update.Name
	}
	if update.Description != nil {
		section.Description = *update.Description
	}
	if update.Position != nil {
		section.Position = *update.Position
	}
	section.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE sections SET name = $1, description = $2, position = $3, updated_at = $4
		WHERE id = $5`,
		section.Name, section.Description, section.Position, section.UpdatedAt, section.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update section: %w", err)
	}
	return section, nil
}

// DeleteSection removes a section. The delete is hard and cascades to the
// section's folders and their files.
func (s *Store) DeleteSection(ctx context.Context, accountID, sectionID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sections WHERE id = $1 AND account_id = $2`, sectionID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("section not found")
	}
	return nil
}
