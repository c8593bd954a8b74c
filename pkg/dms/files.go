package dms

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// documentIDAlphabet is Crockford base32: no I, L, O, or U.
const documentIDAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const documentIDLength = 8

// allocateDocumentID generates a human-facing document id unique within the
// account, retrying on collision.
func (s *Store) allocateDocumentID(ctx context.Context, accountID string) (string, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		randomBytes := make([]byte, documentIDLength)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate document id: %w", err)
		}
		code := make([]byte, documentIDLength)
		for i, b := range randomBytes {
			code[i] = documentIDAlphabet[int(b)%len(documentIDAlphabet)]
		}
		documentID := "DOC-" + string(code)

		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM files WHERE account_id = $1 AND document_id = $2`,
			accountID, documentID).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("failed to check document id: %w", err)
		}
		if exists == 0 {
			return documentID, nil
		}
	}
	return "", apperr.Internal(nil, "could not allocate a unique document id")
}

// CreateFile records an already-uploaded file. The blob must exist first:
// storage path, size, and hash are required inputs (office stubs excepted).
// The file's document id is allocated here.
func (s *Store) CreateFile(ctx context.Context, file *File) (*File, error) {
	if _, err := s.GetFolder(ctx, file.AccountID, file.FolderID); err != nil {
		return nil, err
	}

	if file.Name == "" {
		return nil, apperr.Validation("file name is required")
	}
	if !file.IsOfficeDoc && file.StoragePath == "" {
		return nil, apperr.Validation("storage path is required")
	}

	documentID, err := s.allocateDocumentID(ctx, file.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *file
	created.ID = uuid.NewString()
	created.DocumentID = documentID
	created.CreatedAt = now
	created.UpdatedAt = now
	created.IsDeleted = false
	created.DeletedAt = nil

	tags, err := encodeTags(created.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO files (id, account_id, folder_id, document_id, name, original_filename,
			mime_type, size_bytes, storage_path, file_hash, tags, notes,
			is_office_doc, office_type, office_url, created_by, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, FALSE)`,
		created.ID, created.AccountID, created.FolderID, created.DocumentID,
		created.Name, created.OriginalFilename, created.MimeType, created.SizeBytes,
		created.StoragePath, created.FileHash, tags, created.Notes,
		created.IsOfficeDoc, created.OfficeType, created.OfficeURL,
		created.CreatedBy, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &created, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

const fileColumns = `id, account_id, folder_id, document_id, name, original_filename,
	mime_type, size_bytes, storage_path, file_hash, tags, notes,
	is_office_doc, office_type, office_url, created_by, created_at, updated_at, is_deleted, deleted_at`

func scanFile(scan func(dest ...interface{}) error) (*File, error) {
	var f File
	var tags string
	var officeType, officeURL sql.NullString
	var deletedAt sql.NullTime
	err := scan(
		&f.ID, &f.AccountID, &f.FolderID, &f.DocumentID, &f.Name, &f.OriginalFilename,
		&f.MimeType, &f.SizeBytes, &f.StoragePath, &f.FileHash, &tags, &f.Notes,
		&f.IsOfficeDoc, &officeType, &officeURL, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
		&f.IsDeleted, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &f.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if officeType.Valid {
		v := officeType.String
		f.OfficeType = &v
	}
	if officeURL.Valid {
		v := officeURL.String
		f.OfficeURL = &v
	}
	if deletedAt.Valid {
		v := deletedAt.Time
		f.DeletedAt = &v
	}
	return &f, nil
}

// GetFile retrieves a file scoped to its account. Soft-deleted files are
// still returned here; listing and search exclude them.
func (s *Store) GetFile(ctx context.Context, accountID, fileID string) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND account_id = $2`,
		fileID, accountID)
	file, err := scanFile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// GetFileByDocumentID resolves a file by its human-facing document id
func (s *Store) GetFileByDocumentID(ctx context.Context, accountID, documentID string) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE account_id = $1 AND document_id = $2`,
		accountID, documentID)
	file, err := scanFile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// FindFileByHash returns the account's non-deleted file with the given
// content hash, if any. Used by the upload dedup path.
func (s *Store) FindFileByHash(ctx context.Context, accountID, fileHash string) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE account_id = $1 AND file_hash = $2 AND is_deleted = FALSE
		 ORDER BY created_at ASC LIMIT 1`,
		accountID, fileHash)
	file, err := scanFile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file by hash: %w", err)
	}
	return file, nil
}

// ListFiles lists the non-deleted files in a folder
func (s *Store) ListFiles(ctx context.Context, accountID, folderID string, limit, offset int) ([]File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE account_id = $1 AND folder_id = $2 AND is_deleted = FALSE
		 ORDER BY name ASC LIMIT $3 OFFSET $4`,
		accountID, folderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

// ListDeletedFiles lists the account's soft-deleted files, most recently
// deleted first.
func (s *Store) ListDeletedFiles(ctx context.Context, accountID string, limit, offset int) ([]File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE account_id = $1 AND is_deleted = TRUE
		 ORDER BY deleted_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted files: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

func collectFiles(rows *sql.Rows) ([]File, error) {
	var files []File
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, *file)
	}
	return files, rows.Err()
}

// UpdateFile applies partial changes to a file
func (s *Store) UpdateFile(ctx context.Context, accountID, fileID string, update FileUpdate) (*File, error) {
	file, err := s.GetFile(ctx, accountID, fileID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		file.Name = *update.Name
	}
	if update.Notes != nil {
		file.Notes = *update.Notes
	}
	if update.Tags != nil {
		file.Tags = *update.Tags
	}
	if update.OfficeURL != nil {
		file.OfficeURL = update.OfficeURL
	}
	if update.FolderID != nil {
		if _, err := s.GetFolder(ctx, accountID, *update.FolderID); err != nil {
			return nil, err
		}
		file.FolderID = *update.FolderID
	}
	file.UpdatedAt = time.Now().UTC()

	tags, err := encodeTags(file.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE files SET name = $1, notes = $2, tags = $3, folder_id = $4, office_url = $5, updated_at = $6
		WHERE id = $7`,
		file.Name, file.Notes, tags, file.FolderID, file.OfficeURL, file.UpdatedAt, file.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update file: %w", err)
	}
	return file, nil
}

// SoftDeleteFile flags a file deleted. The row and blob remain; restore
// reverses it. Deleting an already-deleted file reports not-found.
func (s *Store) SoftDeleteFile(ctx context.Context, accountID, fileID string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET is_deleted = TRUE, deleted_at = $1, updated_at = $1
		WHERE id = $2 AND account_id = $3 AND is_deleted = FALSE`,
		now, fileID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("file not found")
	}
	return nil
}

// RestoreFile clears a file's soft-delete flag. Restoring a file that is
// not deleted reports not-found.
func (s *Store) RestoreFile(ctx context.Context, accountID, fileID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET is_deleted = FALSE, deleted_at = NULL, updated_at = $1
		WHERE id = $2 AND account_id = $3 AND is_deleted = TRUE`,
		time.Now().UTC(), fileID, accountID)
	if err != nil {
		return fmt.Errorf("failed to restore file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to restore file: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("file not found")
	}
	return nil
}

// PermanentDeleteFile removes the row. Blob deletion is the transfer
// layer's responsibility and must happen before this call.
func (s *Store) PermanentDeleteFile(ctx context.Context, accountID, fileID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = $1 AND account_id = $2`, fileID, accountID)
	if err != nil {
		return fmt.Errorf("failed to permanently delete file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to permanently delete file: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("file not found")
	}
	return nil
}

// HasFileWithStoragePath reports whether any file row, deleted or not,
// references the object key. Used by the orphan-blob sweep.
func (s *Store) HasFileWithStoragePath(ctx context.Context, storagePath string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM files WHERE storage_path = $1`, storagePath).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check storage path: %w", err)
	}
	return count > 0, nil
}

// ListFilesByScope collects the account's non-deleted files, optionally
// restricted to one section or one folder. Used by bulk download.
func (s *Store) ListFilesByScope(ctx context.Context, accountID string, sectionID, folderID *string) ([]File, error) {
	query := `SELECT ` + qualifyFileColumns("f") + ` FROM files f`
	args := []interface{}{accountID}
	where := ` WHERE f.account_id = $1 AND f.is_deleted = FALSE`

	switch {
	case folderID != nil:
		where += ` AND f.folder_id = $2`
		args = append(args, *folderID)
	case sectionID != nil:
		query += ` JOIN folders d ON d.id = f.folder_id`
		where += ` AND d.section_id = $2`
		args = append(args, *sectionID)
	}

	rows, err := s.db.QueryContext(ctx, query+where+` ORDER BY f.name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

func qualifyFileColumns(alias string) string {
	return alias + `.id, ` + alias + `.account_id, ` + alias + `.folder_id, ` + alias + `.document_id, ` +
		alias + `.name, ` + alias + `.original_filename, ` + alias + `.mime_type, ` + alias + `.size_bytes, ` +
		alias + `.storage_path, ` + alias + `.file_hash, ` + alias + `.tags, ` + alias + `.notes, ` +
		alias + `.is_office_doc, ` + alias + `.office_type, ` + alias + `.office_url, ` + alias + `.created_by, ` +
		alias + `.created_at, ` + alias + `.updated_at, ` + alias + `.is_deleted, ` + alias + `.deleted_at`
}
