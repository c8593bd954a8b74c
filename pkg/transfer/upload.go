package transfer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault/pkg/apperr"
	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/storage"
)

// DedupMessage is returned when an upload matches an existing file by
// content hash.
const DedupMessage = "file already exists (deduplicated)"

// UploadRequest is one file to store.
type UploadRequest struct {
	FolderID    string
	Filename    string
	ContentType string
	Content     []byte
	CreatedBy   string
}

// UploadResult reports one stored or deduplicated file.
type UploadResult struct {
	File         *dms.File `json:"file"`
	Deduplicated bool      `json:"deduplicated"`
	Message      string    `json:"message,omitempty"`
}

// FailedUpload reports one item that could not be stored.
type FailedUpload struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BulkResult aggregates a bulk or zip upload. Every input item appears
// exactly once across Uploaded and Failed.
type BulkResult struct {
	Uploaded     []UploadResult `json:"uploaded"`
	Failed       []FailedUpload `json:"failed"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailCount    int            `json:"fail_count"`
}

// UploadFile stores one file. Content is hashed first; if the account
// already holds a non-deleted file with the same hash, the existing file is
// returned and neither the blob nor a new row is written. Otherwise the
// blob goes to the object store and the row is created after it, so a
// storage failure never leaves a row without content.
func (s *Service) UploadFile(ctx context.Context, accountID string, req UploadRequest) (*UploadResult, error) {
	result, err := s.uploadFile(ctx, accountID, req)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.UploadsTotal.WithLabelValues("single", status).Inc()
	}
	return result, err
}

func (s *Service) uploadFile(ctx context.Context, accountID string, req UploadRequest) (*UploadResult, error) {
	if req.Filename == "" {
		return nil, apperr.Validation("filename is required")
	}
	if _, err := s.store.GetFolder(ctx, accountID, req.FolderID); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(req.Content)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.store.FindFileByHash(ctx, accountID, hash)
	if err == nil {
		if s.metrics != nil {
			s.metrics.DedupHitsTotal.Inc()
		}
		s.logger.WithFields(map[string]interface{}{
			"account_id": accountID,
			"file_id":    existing.ID,
			"hash":       hash,
		}).Debug("upload deduplicated")
		return &UploadResult{File: existing, Deduplicated: true, Message: DedupMessage}, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	key := objectKey(accountID, req.FolderID, hash, req.Filename)
	if err := s.objects.Put(ctx, key, bytes.NewReader(req.Content), req.ContentType); err != nil {
		return nil, apperr.Storage(err, "failed to store file content")
	}

	file, err := s.store.CreateFile(ctx, &dms.File{
		AccountID:        accountID,
		FolderID:         req.FolderID,
		Name:             req.Filename,
		OriginalFilename: req.Filename,
		MimeType:         req.ContentType,
		SizeBytes:        int64(len(req.Content)),
		StoragePath:      key,
		FileHash:         hash,
		CreatedBy:        req.CreatedBy,
	})
	if err != nil {
		// The blob stays behind as orphan garbage; the reconciliation
		// sweep collects it.
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UploadBytesTotal.Add(float64(len(req.Content)))
	}
	return &UploadResult{File: file}, nil
}

// objectKey derives the blob key for an upload. A fragment of the content
// hash goes in front of the filename so re-uploading a name with different
// bytes gets its own blob instead of overwriting the previous one.
func objectKey(accountID, folderID, hash, filename string) string {
	return fmt.Sprintf("files/%s/%s/%s-%s", accountID, folderID, hash[:12], sanitizeKeyPart(filename))
}

func sanitizeKeyPart(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

// BulkUpload stores a batch of files with per-item failure isolation and
// bounded parallelism. Output order need not match input order, but every
// item lands in exactly one of the two lists.
func (s *Service) BulkUpload(ctx context.Context, accountID string, items []UploadRequest) (*BulkResult, error) {
	result := &BulkResult{Total: len(items)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, item := range items {
		item := item
		g.Go(func() error {
			uploaded, err := s.uploadFile(gctx, accountID, item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, FailedUpload{Filename: item.Filename, Reason: err.Error()})
			} else {
				result.Uploaded = append(result.Uploaded, *uploaded)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.SuccessCount = len(result.Uploaded)
	result.FailCount = len(result.Failed)
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues("bulk", "ok").Add(float64(result.SuccessCount))
		s.metrics.UploadsTotal.WithLabelValues("bulk", "error").Add(float64(result.FailCount))
	}
	return result, nil
}

// UploadZip extracts an archive and stores every entry through the dedup
// path. With preserveStructure, the archive's internal directories are
// recreated as folders under the root; a path appearing in several entries
// resolves to one folder row. Entries fail individually.
func (s *Service) UploadZip(ctx context.Context, accountID string, zipBytes []byte, rootFolderID string, preserveStructure bool, createdBy string) (*BulkResult, error) {
	root, err := s.store.GetFolder(ctx, accountID, rootFolderID)
	if err != nil {
		return nil, err
	}

	entries, err := storage.ExtractZip(zipBytes)
	if err != nil {
		return nil, apperr.Validation("invalid zip archive: %v", err)
	}

	// One folder row per archive path within this request
	folderCache := map[string]string{"": rootFolderID}

	result := &BulkResult{Total: len(entries)}
	for _, entry := range entries {
		folderID := rootFolderID
		if preserveStructure && len(entry.FolderPath) > 0 {
			folderID, err = s.resolveFolderPath(ctx, accountID, root.SectionID, entry.FolderPath, folderCache, createdBy)
			if err != nil {
				result.Failed = append(result.Failed, FailedUpload{Filename: entry.OriginalPath, Reason: err.Error()})
				if s.metrics != nil {
					s.metrics.ZipEntriesTotal.WithLabelValues("error").Inc()
				}
				continue
			}
		}

		uploaded, err := s.uploadFile(ctx, accountID, UploadRequest{
			FolderID:  folderID,
			Filename:  entry.Filename,
			Content:   entry.Content,
			CreatedBy: createdBy,
		})
		if err != nil {
			result.Failed = append(result.Failed, FailedUpload{Filename: entry.OriginalPath, Reason: err.Error()})
			if s.metrics != nil {
				s.metrics.ZipEntriesTotal.WithLabelValues("error").Inc()
			}
			continue
		}
		result.Uploaded = append(result.Uploaded, *uploaded)
		if s.metrics != nil {
			s.metrics.ZipEntriesTotal.WithLabelValues("ok").Inc()
		}
	}

	result.SuccessCount = len(result.Uploaded)
	result.FailCount = len(result.Failed)
	return result, nil
}

// resolveFolderPath maps an archive-internal directory path to a folder id,
// creating missing folders level by level. A concurrent create of the same
// name is absorbed by re-reading after a conflict.
func (s *Service) resolveFolderPath(ctx context.Context, accountID, sectionID string, path []string, cache map[string]string, createdBy string) (string, error) {
	parentID := cache[""]
	key := ""
	for _, name := range path {
		key = key + "/" + name
		if id, ok := cache[key]; ok {
			parentID = id
			continue
		}

		id, err := s.ensureFolder(ctx, accountID, sectionID, parentID, name, createdBy)
		if err != nil {
			return "", err
		}
		cache[key] = id
		parentID = id
	}
	return parentID, nil
}

func (s *Service) ensureFolder(ctx context.Context, accountID, sectionID, parentID, name, createdBy string) (string, error) {
	folder, err := s.store.CreateFolder(ctx, accountID, sectionID, &parentID, name, "", createdBy)
	if err == nil {
		return folder.ID, nil
	}
	if !apperr.IsConflict(err) {
		return "", err
	}

	siblings, err := s.store.ListFolders(ctx, accountID, sectionID, &parentID)
	if err != nil {
		return "", err
	}
	for _, sibling := range siblings {
		if sibling.Name == name {
			return sibling.ID, nil
		}
	}
	return "", apperr.Internal(nil, "folder %q conflicted but was not found", name)
}
