package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// ZipEntry is one extracted archive member.
type ZipEntry struct {
	// Filename is the base name, FolderPath the archive-internal directories.
	Filename     string
	FolderPath   []string
	OriginalPath string
	Content      []byte
}

// ExtractZip decompresses every non-directory entry of the archive in memory.
func ExtractZip(data []byte) ([]ZipEntry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip file: %w", err)
	}

	var entries []ZipEntry
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read zip entry %s: %w", f.Name, err)
		}

		// Normalize to forward slashes and strip any leading ./
		cleaned := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		parts := strings.Split(cleaned, "/")
		filename := parts[len(parts)-1]
		var folderPath []string
		if len(parts) > 1 {
			folderPath = parts[:len(parts)-1]
		}

		entries = append(entries, ZipEntry{
			Filename:     filename,
			FolderPath:   folderPath,
			OriginalPath: f.Name,
			Content:      content,
		})
	}

	return entries, nil
}

// ArchiveFile names one object to place into a zip being built.
type ArchiveFile struct {
	StorageKey string
	Filename   string
	FolderPath []string
}

// BuildZip downloads each file from the store and assembles a deflated
// archive in memory. Files that fail to download are skipped; the archive
// still contains every file that could be fetched.
func BuildZip(ctx context.Context, store ObjectStore, files []ArchiveFile) ([]byte, []string, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	var skipped []string
	for _, f := range files {
		content, err := readObject(ctx, store, f.StorageKey)
		if err != nil {
			skipped = append(skipped, f.Filename)
			continue
		}

		zipPath := f.Filename
		if len(f.FolderPath) > 0 {
			zipPath = strings.Join(f.FolderPath, "/") + "/" + f.Filename
		}

		entry, err := w.CreateHeader(&zip.FileHeader{
			Name:   zipPath,
			Method: zip.Deflate,
		})
		if err != nil {
			w.Close()
			return nil, skipped, fmt.Errorf("failed to create zip entry %s: %w", zipPath, err)
		}
		if _, err := entry.Write(content); err != nil {
			w.Close()
			return nil, skipped, fmt.Errorf("failed to write zip entry %s: %w", zipPath, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, skipped, fmt.Errorf("failed to finalize zip: %w", err)
	}
	return buf.Bytes(), skipped, nil
}

func readObject(ctx context.Context, store ObjectStore, key string) ([]byte, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
