package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func makeZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := f.Write(content); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractZip(t *testing.T) {
	data := makeZip(t, map[string][]byte{
		"readme.txt":          []byte("hello"),
		"a/b/invoice.pdf":     []byte("pdf-bytes"),
		"a/b/other/notes.txt": []byte("notes"),
	})

	entries, err := ExtractZip(data)
	if err != nil {
		t.Fatalf("ExtractZip failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	byName := map[string]ZipEntry{}
	for _, e := range entries {
		byName[e.OriginalPath] = e
	}

	root := byName["readme.txt"]
	if root.Filename != "readme.txt" || len(root.FolderPath) != 0 {
		t.Errorf("unexpected root entry: %+v", root)
	}

	nested := byName["a/b/invoice.pdf"]
	if nested.Filename != "invoice.pdf" {
		t.Errorf("expected filename invoice.pdf, got %s", nested.Filename)
	}
	if strings.Join(nested.FolderPath, "/") != "a/b" {
		t.Errorf("expected folder path a/b, got %v", nested.FolderPath)
	}
	if string(nested.Content) != "pdf-bytes" {
		t.Errorf("unexpected content: %q", nested.Content)
	}
}

func TestExtractZipSkipsDirectories(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if _, err := w.Create("empty-dir/"); err != nil {
		t.Fatalf("create dir entry: %v", err)
	}
	f, _ := w.Create("empty-dir/file.txt")
	f.Write([]byte("x"))
	w.Close()

	entries, err := ExtractZip(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractZip failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected directory entries skipped, got %d entries", len(entries))
	}
}

func TestExtractZipRejectsGarbage(t *testing.T) {
	if _, err := ExtractZip([]byte("not a zip")); err == nil {
		t.Error("expected error for invalid archive")
	}
}

func TestBuildZip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, "files/acc/f1/a.txt", strings.NewReader("alpha"), "text/plain")
	store.Put(ctx, "files/acc/f1/b.txt", strings.NewReader("beta"), "text/plain")

	data, skipped, err := BuildZip(ctx, store, []ArchiveFile{
		{StorageKey: "files/acc/f1/a.txt", Filename: "a.txt", FolderPath: []string{"reports", "2026"}},
		{StorageKey: "files/acc/f1/b.txt", Filename: "b.txt"},
		{StorageKey: "files/acc/missing", Filename: "gone.txt"},
	})
	if err != nil {
		t.Fatalf("BuildZip failed: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "gone.txt" {
		t.Errorf("expected gone.txt skipped, got %v", skipped)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("produced archive unreadable: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 archive members, got %d", len(reader.File))
	}

	names := map[string]string{}
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open member: %v", err)
		}
		content, _ := io.ReadAll(rc)
		rc.Close()
		names[f.Name] = string(content)
	}

	if names["reports/2026/a.txt"] != "alpha" {
		t.Errorf("expected nested path preserved, got members %v", names)
	}
	if names["b.txt"] != "beta" {
		t.Errorf("expected flat member b.txt, got %v", names)
	}
}
