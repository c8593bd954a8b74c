package dms

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/docvault/docvault/pkg/apperr"
)

func TestStore_SearchMatchTypePriority(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")

	// Name, tag, and notes all match; name wins
	file := mustFile(t, store, acme, folder.ID, "invoice", "h1")
	if _, err := store.UpdateFile(ctx, acme, file.ID, FileUpdate{
		Tags:  &[]string{"invoice-2024"},
		Notes: strPtr("this invoice covers Q1"),
	}); err != nil {
		t.Fatalf("update file failed: %v", err)
	}

	results, err := store.SearchFiles(ctx, acme, SearchParams{Query: "invoice", Scope: ScopeAll})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 1 {
		t.Fatalf("expected 1 hit, got %d", results.Total)
	}
	if results.Hits[0].MatchType != "name" {
		t.Errorf("expected name match to take priority, got %q", results.Hits[0].MatchType)
	}
}

func strPtr(s string) *string { return &s }

func TestStore_SearchScopes(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")

	named := mustFile(t, store, acme, folder.ID, "Quarterly Report", "h1")
	tagged := mustFile(t, store, acme, folder.ID, "misc.pdf", "h2")
	if _, err := store.UpdateFile(ctx, acme, tagged.ID, FileUpdate{Tags: &[]string{"report-final"}}); err != nil {
		t.Fatalf("update file failed: %v", err)
	}
	noted := mustFile(t, store, acme, folder.ID, "other.pdf", "h3")
	if _, err := store.UpdateFile(ctx, acme, noted.ID, FileUpdate{Notes: strPtr("see the annual report for detail")}); err != nil {
		t.Fatalf("update file failed: %v", err)
	}

	// name scope: only the name match, case-insensitive
	results, err := store.SearchFiles(ctx, acme, SearchParams{Query: "REPORT", Scope: ScopeName})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 1 || results.Hits[0].File.ID != named.ID {
		t.Errorf("expected only the name match in name scope, got %d hits", results.Total)
	}

	// metadata scope: tag and notes matches, not the name match
	results, err = store.SearchFiles(ctx, acme, SearchParams{Query: "report", Scope: ScopeMetadata})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 2 {
		t.Fatalf("expected 2 metadata hits, got %d", results.Total)
	}
	types := map[string]string{}
	for _, hit := range results.Hits {
		types[hit.File.ID] = hit.MatchType
	}
	if types[tagged.ID] != "tag" || types[noted.ID] != "notes" {
		t.Errorf("unexpected match types: %v", types)
	}

	// all scope is the union
	results, _ = store.SearchFiles(ctx, acme, SearchParams{Query: "report", Scope: ScopeAll})
	if results.Total != 3 {
		t.Errorf("expected 3 hits in all scope, got %d", results.Total)
	}

	// content scope is reserved and contributes nothing
	results, _ = store.SearchFiles(ctx, acme, SearchParams{Query: "report", Scope: ScopeContent})
	if results.Total != 0 || len(results.Hits) != 0 {
		t.Errorf("expected empty content-scope results")
	}

	if _, err := store.SearchFiles(ctx, acme, SearchParams{Query: "report", Scope: "everything"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown scope, got %v", err)
	}
}

func TestStore_SearchNotesSnippet(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")
	file := mustFile(t, store, acme, folder.ID, "plain.pdf", "h1")

	notes := strings.Repeat("x", 200) + " keyword " + strings.Repeat("y", 200)
	if _, err := store.UpdateFile(ctx, acme, file.ID, FileUpdate{Notes: &notes}); err != nil {
		t.Fatalf("update file failed: %v", err)
	}

	results, err := store.SearchFiles(ctx, acme, SearchParams{Query: "keyword", Scope: ScopeMetadata})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 1 {
		t.Fatalf("expected 1 hit, got %d", results.Total)
	}
	snippet := results.Hits[0].Snippet
	if !strings.Contains(snippet, "keyword") {
		t.Errorf("snippet should contain the match, got %q", snippet)
	}
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Errorf("snippet should be elided on both sides, got %q", snippet)
	}
	// ±50 chars window plus the ellipses
	if len(snippet) > len("keyword")+100+6 {
		t.Errorf("snippet too long: %d chars", len(snippet))
	}
}

func TestStore_SearchNotesSnippetMultibyte(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")
	file := mustFile(t, store, acme, folder.ID, "notes.pdf", "h1")

	// Multi-byte runes on both sides of the match put the window edges in
	// the middle of a character unless they snap to rune boundaries.
	notes := strings.Repeat("ŭ", 80) + " keyword " + strings.Repeat("é", 80)
	if _, err := store.UpdateFile(ctx, acme, file.ID, FileUpdate{Notes: &notes}); err != nil {
		t.Fatalf("update file failed: %v", err)
	}

	results, err := store.SearchFiles(ctx, acme, SearchParams{Query: "keyword", Scope: ScopeMetadata})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 1 {
		t.Fatalf("expected 1 hit, got %d", results.Total)
	}
	snippet := results.Hits[0].Snippet
	if !utf8.ValidString(snippet) {
		t.Errorf("snippet is not valid UTF-8: %q", snippet)
	}
	if !strings.Contains(snippet, "keyword") {
		t.Errorf("snippet should contain the match, got %q", snippet)
	}
}

func TestStore_SearchFiltersAndPagination(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	docs := mustSection(t, store, acme, "Docs")
	archive := mustSection(t, store, acme, "Archive")
	inbox := mustFolder(t, store, acme, docs.ID, nil, "inbox")
	old := mustFolder(t, store, acme, archive.ID, nil, "old")
	mustFile(t, store, acme, inbox.ID, "report-a", "h1")
	mustFile(t, store, acme, inbox.ID, "report-b", "h2")
	mustFile(t, store, acme, old.ID, "report-c", "h3")

	// Section filter
	results, err := store.SearchFiles(ctx, acme, SearchParams{Query: "report", Scope: ScopeName, SectionID: &docs.ID})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 2 {
		t.Errorf("expected 2 hits in section, got %d", results.Total)
	}

	// Pagination: total is pre-pagination
	results, err = store.SearchFiles(ctx, acme, SearchParams{Query: "report", Scope: ScopeName, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results.Total != 3 {
		t.Errorf("expected total 3, got %d", results.Total)
	}
	if len(results.Hits) != 2 {
		t.Errorf("expected 2 hits on page, got %d", len(results.Hits))
	}
	if results.Hits[0].File.Name != "report-b" {
		t.Errorf("expected deterministic name ordering, got %q first", results.Hits[0].File.Name)
	}
}
