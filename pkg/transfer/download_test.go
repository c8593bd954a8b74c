package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/docvault/docvault/pkg/apperr"
	"github.com/docvault/docvault/pkg/dms"
)

func TestService_DownloadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	uploaded := f.upload(t, "notes.txt", "meeting notes")

	file, content, err := f.svc.Download(ctx, f.accountID, uploaded.File.ID)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if string(content) != "meeting notes" {
		t.Fatalf("content = %q, want %q", content, "meeting notes")
	}
	if file.Name != "notes.txt" {
		t.Fatalf("name = %s, want notes.txt", file.Name)
	}

	_, _, err = f.svc.Download(ctx, f.accountID, "missing")
	if !apperr.IsNotFound(err) {
		t.Fatalf("missing file: got %v, want not found", err)
	}
}

func TestService_PresignDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	uploaded := f.upload(t, "contract.pdf", "signed terms")

	url, err := f.svc.PresignDownload(ctx, f.accountID, uploaded.File.ID, 15*time.Minute)
	if err != nil {
		t.Fatalf("presign failed: %v", err)
	}
	if url == "" {
		t.Fatal("expected a non-empty url")
	}
}

func TestService_OfficeDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateOfficeDocument(ctx, f.accountID, f.folder.ID, "budget.xlsx", dms.OfficeExcel, "user-1")
	if err != nil {
		t.Fatalf("create office document failed: %v", err)
	}
	if !doc.IsOfficeDoc || doc.StoragePath != "" {
		t.Fatalf("office doc = %+v, want stub with no storage path", doc)
	}
	if doc.OfficeType == nil || *doc.OfficeType != "excel" {
		t.Fatalf("office type = %v, want excel", doc.OfficeType)
	}

	// No blob to download or presign.
	if _, _, err := f.svc.Download(ctx, f.accountID, doc.ID); !apperr.IsValidation(err) {
		t.Fatalf("download stub: got %v, want validation error", err)
	}
	if _, err := f.svc.PresignDownload(ctx, f.accountID, doc.ID, time.Minute); !apperr.IsValidation(err) {
		t.Fatalf("presign stub: got %v, want validation error", err)
	}

	_, err = f.svc.CreateOfficeDocument(ctx, f.accountID, f.folder.ID, "sketch.vsd", "visio", "user-1")
	if !apperr.IsValidation(err) {
		t.Fatalf("unknown type: got %v, want validation error", err)
	}
}

func TestService_DownloadAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.store.CreateFolder(ctx, f.accountID, f.section.ID, &f.folder.ID, "Archive", "", "user-1")
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}

	f.upload(t, "top.txt", "top level")
	if _, err := f.svc.UploadFile(ctx, f.accountID, UploadRequest{
		FolderID: sub.ID, Filename: "deep.txt", Content: []byte("nested"), CreatedBy: "user-1",
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	// An office stub in scope is reported as skipped, not fatal.
	if _, err := f.svc.CreateOfficeDocument(ctx, f.accountID, sub.ID, "live.docx", dms.OfficeWord, "user-1"); err != nil {
		t.Fatalf("create office document failed: %v", err)
	}

	data, skipped, err := f.svc.DownloadAll(ctx, f.accountID, &f.section.ID, nil)
	if err != nil {
		t.Fatalf("download all failed: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "live.docx" {
		t.Fatalf("skipped = %v, want [live.docx]", skipped)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("result is not a zip: %v", err)
	}
	got := make(map[string]string)
	for _, entry := range reader.File {
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("open entry failed: %v", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry failed: %v", err)
		}
		got[entry.Name] = string(content)
	}

	want := map[string]string{
		"Inbox/top.txt":          "top level",
		"Inbox/Archive/deep.txt": "nested",
	}
	if len(got) != len(want) {
		t.Fatalf("archive entries = %v, want %v", got, want)
	}
	for name, content := range want {
		if got[name] != content {
			t.Fatalf("entry %s = %q, want %q", name, got[name], content)
		}
	}

	// Folder scope narrows to the subtree root's own files.
	data, _, err = f.svc.DownloadAll(ctx, f.accountID, nil, &sub.ID)
	if err != nil {
		t.Fatalf("folder download failed: %v", err)
	}
	reader, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("result is not a zip: %v", err)
	}
	if len(reader.File) != 1 {
		t.Fatalf("folder-scoped entries = %d, want 1", len(reader.File))
	}
}

func TestService_PermanentDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	uploaded := f.upload(t, "old.txt", "stale data")
	if f.objects.Len() != 1 {
		t.Fatalf("objects = %d, want 1", f.objects.Len())
	}

	if err := f.svc.PermanentDelete(ctx, f.accountID, uploaded.File.ID); err != nil {
		t.Fatalf("permanent delete failed: %v", err)
	}
	if f.objects.Len() != 0 {
		t.Fatalf("objects = %d, want 0 after delete", f.objects.Len())
	}
	if _, err := f.store.GetFile(ctx, f.accountID, uploaded.File.ID); !apperr.IsNotFound(err) {
		t.Fatalf("got %v, want not found after permanent delete", err)
	}
}
