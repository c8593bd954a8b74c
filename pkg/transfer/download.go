package transfer

import (
	"context"
	"io"
	"time"

	"github.com/docvault/docvault/pkg/apperr"
	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/storage"
)

// Download fetches a file's content and its row for response headers
func (s *Service) Download(ctx context.Context, accountID, fileID string) (*dms.File, []byte, error) {
	file, err := s.store.GetFile(ctx, accountID, fileID)
	if err != nil {
		return nil, nil, err
	}
	if file.StoragePath == "" {
		return nil, nil, apperr.Validation("file has no stored content")
	}

	rc, err := s.objects.Get(ctx, file.StoragePath)
	if err != nil {
		s.observeDownload("single", err)
		return nil, nil, apperr.Storage(err, "failed to fetch file content")
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		s.observeDownload("single", err)
		return nil, nil, apperr.Storage(err, "failed to read file content")
	}
	s.observeDownload("single", nil)
	return file, content, nil
}

// PresignDownload returns a time-limited URL for a file's content
func (s *Service) PresignDownload(ctx context.Context, accountID, fileID string, ttl time.Duration) (string, error) {
	file, err := s.store.GetFile(ctx, accountID, fileID)
	if err != nil {
		return "", err
	}
	if file.StoragePath == "" {
		return "", apperr.Validation("file has no stored content")
	}

	url, err := s.objects.Presign(ctx, file.StoragePath, ttl)
	if err != nil {
		return "", apperr.Storage(err, "failed to presign download")
	}
	return url, nil
}

// DownloadAll bundles the non-deleted files in scope into a zip archive,
// reproducing the section's folder hierarchy as archive directories. Files
// whose blobs cannot be fetched are skipped and reported, not fatal.
func (s *Service) DownloadAll(ctx context.Context, accountID string, sectionID, folderID *string) ([]byte, []string, error) {
	files, err := s.store.ListFilesByScope(ctx, accountID, sectionID, folderID)
	if err != nil {
		return nil, nil, err
	}

	pathCache := make(map[string][]string)
	var archive []storage.ArchiveFile
	var skipped []string
	for _, file := range files {
		if file.StoragePath == "" {
			// Office stubs have no blob
			skipped = append(skipped, file.Name)
			continue
		}
		folderPath, err := s.folderPath(ctx, accountID, file.FolderID, pathCache)
		if err != nil {
			return nil, nil, err
		}
		archive = append(archive, storage.ArchiveFile{
			StorageKey: file.StoragePath,
			Filename:   file.Name,
			FolderPath: folderPath,
		})
	}

	data, unfetched, err := storage.BuildZip(ctx, s.objects, archive)
	if err != nil {
		s.observeDownload("bulk", err)
		return nil, nil, apperr.Storage(err, "failed to build archive")
	}
	skipped = append(skipped, unfetched...)
	s.observeDownload("bulk", nil)
	return data, skipped, nil
}

// folderPath reconstructs a folder's ancestry as archive directory names.
// The walk is cycle-guarded: revisiting a folder fails instead of looping.
func (s *Service) folderPath(ctx context.Context, accountID, folderID string, cache map[string][]string) ([]string, error) {
	if path, ok := cache[folderID]; ok {
		return path, nil
	}

	var names []string
	seen := make(map[string]bool)
	current := folderID
	for {
		if seen[current] {
			return nil, apperr.Internal(nil, "folder hierarchy contains a cycle")
		}
		seen[current] = true

		folder, err := s.store.GetFolder(ctx, accountID, current)
		if err != nil {
			return nil, err
		}
		names = append([]string{folder.Name}, names...)
		if folder.ParentFolderID == nil {
			break
		}
		current = *folder.ParentFolderID
	}

	cache[folderID] = names
	return names, nil
}

func (s *Service) observeDownload(kind string, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.DownloadsTotal.WithLabelValues(kind, status).Inc()
}

// CreateOfficeDocument creates a file row with no blob behind it. The
// content lives in an external office-editing integration.
func (s *Service) CreateOfficeDocument(ctx context.Context, accountID, folderID, name string, officeType dms.OfficeType, createdBy string) (*dms.File, error) {
	if !dms.KnownOfficeType(officeType) {
		return nil, apperr.Validation("unknown office document type: %s", officeType)
	}

	typeName := string(officeType)
	return s.store.CreateFile(ctx, &dms.File{
		AccountID:        accountID,
		FolderID:         folderID,
		Name:             name,
		OriginalFilename: name,
		IsOfficeDoc:      true,
		OfficeType:       &typeName,
		CreatedBy:        createdBy,
	})
}

// PermanentDelete removes a file's blob and then its row. A blob-delete
// failure aborts before the row is touched; a row-delete failure after a
// successful blob delete leaves a blob-less row the caller can retry.
func (s *Service) PermanentDelete(ctx context.Context, accountID, fileID string) error {
	file, err := s.store.GetFile(ctx, accountID, fileID)
	if err != nil {
		return err
	}

	if file.StoragePath != "" {
		if err := s.objects.Delete(ctx, file.StoragePath); err != nil {
			return apperr.Storage(err, "failed to delete file content")
		}
	}
	return s.store.PermanentDeleteFile(ctx, accountID, fileID)
}
