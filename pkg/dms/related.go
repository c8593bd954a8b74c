package dms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// CreateRelatedFile links a file to another file resolved by its human
// document id. Links are directional; listing returns outgoing links only.
func (s *Store) CreateRelatedFile(ctx context.Context, accountID, fileID, targetDocumentID string, relationshipType *string, createdBy string) (*RelatedFile, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}
	target, err := s.GetFileByDocumentID(ctx, accountID, targetDocumentID)
	if err != nil {
		return nil, err
	}
	if target.ID == fileID {
		return nil, apperr.Validation("cannot relate a file to itself")
	}

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM related_files WHERE file_id = $1 AND related_file_id = $2`,
		fileID, target.ID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check related file: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("files are already related")
	}

	link := &RelatedFile{
		ID:               uuid.NewString(),
		FileID:           fileID,
		RelatedFileID:    target.ID,
		RelationshipType: relationshipType,
		CreatedBy:        createdBy,
		CreatedAt:        time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO related_files (id, file_id, related_file_id, relationship_type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		link.ID, link.FileID, link.RelatedFileID, link.RelationshipType, link.CreatedBy, link.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create related file: %w", err)
	}
	return link, nil
}

// ListRelatedFiles returns a file's outgoing links
func (s *Store) ListRelatedFiles(ctx context.Context, accountID, fileID string) ([]RelatedFile, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, related_file_id, relationship_type, created_by, created_at
		FROM related_files WHERE file_id = $1 ORDER BY created_at ASC`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list related files: %w", err)
	}
	defer rows.Close()

	var links []RelatedFile
	for rows.Next() {
		var link RelatedFile
		var relType sql.NullString
		if err := rows.Scan(&link.ID, &link.FileID, &link.RelatedFileID, &relType, &link.CreatedBy, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan related file: %w", err)
		}
		if relType.Valid {
			v := relType.String
			link.RelationshipType = &v
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// DeleteRelatedFile removes one directional link
func (s *Store) DeleteRelatedFile(ctx context.Context, accountID, fileID, relatedFileID string) error {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM related_files WHERE file_id = $1 AND related_file_id = $2`,
		fileID, relatedFileID)
	if err != nil {
		return fmt.Errorf("failed to delete related file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete related file: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("related file link not found")
	}
	return nil
}
