package dms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// CreateComment adds a comment to a file
func (s *Store) CreateComment(ctx context.Context, accountID, fileID, authorID, body string) (*FileComment, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, apperr.Validation("comment body is required")
	}

	now := time.Now().UTC()
	comment := &FileComment{
		ID:        uuid.NewString(),
		FileID:    fileID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_comments (id, file_id, author_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.FileID, comment.AuthorID, comment.Body, comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// GetComment retrieves a comment, scoped to the account through its file
func (s *Store) GetComment(ctx context.Context, accountID, commentID string) (*FileComment, error) {
	var c FileComment
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.file_id, c.author_id, c.body, c.created_at, c.updated_at
		FROM file_comments c
		JOIN files f ON f.id = c.file_id
		WHERE c.id = $1 AND f.account_id = $2`, commentID, accountID).Scan(
		&c.ID, &c.FileID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListComments lists a file's comments, newest first
func (s *Store) ListComments(ctx context.Context, accountID, fileID string, limit, offset int) ([]FileComment, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, author_id, body, created_at, updated_at
		FROM file_comments WHERE file_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, fileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []FileComment
	for rows.Next() {
		var c FileComment
		if err := rows.Scan(&c.ID, &c.FileID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment edits a comment. Only the author can edit.
func (s *Store) UpdateComment(ctx context.Context, accountID, commentID, authorID, body string) (*FileComment, error) {
	comment, err := s.GetComment(ctx, accountID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != authorID {
		return nil, apperr.Forbidden("comment belongs to another user")
	}
	if body == "" {
		return nil, apperr.Validation("comment body is required")
	}

	comment.Body = body
	comment.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE file_comments SET body = $1, updated_at = $2 WHERE id = $3`,
		comment.Body, comment.UpdatedAt, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment. Only the author can delete.
func (s *Store) DeleteComment(ctx context.Context, accountID, commentID, authorID string) error {
	comment, err := s.GetComment(ctx, accountID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != authorID {
		return apperr.Forbidden("comment belongs to another user")
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM file_comments WHERE id = $1`, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
