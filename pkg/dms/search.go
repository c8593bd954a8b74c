package dms

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docvault/docvault/pkg/apperr"
)

// SearchScope selects which fields a search matches against.
type SearchScope string

const (
	// ScopeName matches the file display name.
	ScopeName SearchScope = "name"
	// ScopeMetadata matches tags and notes.
	ScopeMetadata SearchScope = "metadata"
	// ScopeContent is reserved for full-text content search and currently
	// contributes no matches.
	ScopeContent SearchScope = "content"
	// ScopeAll is the union of name and metadata matching.
	ScopeAll SearchScope = "all"
)

// KnownSearchScope reports whether scope is a supported search scope.
func KnownSearchScope(scope SearchScope) bool {
	switch scope {
	case ScopeName, ScopeMetadata, ScopeContent, ScopeAll:
		return true
	}
	return false
}

// SearchParams describes one search request.
type SearchParams struct {
	Query     string
	Scope     SearchScope
	SectionID *string
	FolderID  *string
	Limit     int
	Offset    int
}

// SearchHit is one matching file. MatchType reports which field matched,
// by fixed priority: name, then tag, then notes. Snippet shows the matched
// text; for notes it is a window around the first occurrence.
type SearchHit struct {
	File      File   `json:"file"`
	MatchType string `json:"match_type"`
	Snippet   string `json:"snippet"`
}

// SearchResults carries the page of hits plus the total match count before
// pagination.
type SearchResults struct {
	Hits  []SearchHit `json:"hits"`
	Total int         `json:"total"`
}

// SearchFiles finds the account's non-deleted files matching params.
// The database prefilters candidates; match classification and snippets
// are computed here so the priority rules stay in one place.
func (s *Store) SearchFiles(ctx context.Context, accountID string, params SearchParams) (*SearchResults, error) {
	if !KnownSearchScope(params.Scope) {
		return nil, apperr.Validation("unknown search scope: %s", params.Scope)
	}
	if params.Query == "" {
		return nil, apperr.Validation("search query is required")
	}
	if params.Scope == ScopeContent {
		return &SearchResults{Hits: []SearchHit{}, Total: 0}, nil
	}

	pattern := "%" + strings.ToLower(params.Query) + "%"

	query := `SELECT ` + qualifyFileColumns("f") + ` FROM files f`
	where := ` WHERE f.account_id = $1 AND f.is_deleted = FALSE`
	args := []interface{}{accountID}

	if params.SectionID != nil {
		query += ` JOIN folders d ON d.id = f.folder_id`
		args = append(args, *params.SectionID)
		where += fmt.Sprintf(` AND d.section_id = $%d`, len(args))
	}
	if params.FolderID != nil {
		args = append(args, *params.FolderID)
		where += fmt.Sprintf(` AND f.folder_id = $%d`, len(args))
	}

	args = append(args, pattern)
	match := fmt.Sprintf(`$%d`, len(args))
	switch params.Scope {
	case ScopeName:
		where += ` AND LOWER(f.name) LIKE ` + match
	case ScopeMetadata:
		where += ` AND (LOWER(f.tags) LIKE ` + match + ` OR LOWER(f.notes) LIKE ` + match + `)`
	case ScopeAll:
		where += ` AND (LOWER(f.name) LIKE ` + match + ` OR LOWER(f.tags) LIKE ` + match + ` OR LOWER(f.notes) LIKE ` + match + `)`
	}

	rows, err := s.db.QueryContext(ctx, query+where+` ORDER BY f.name ASC, f.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	candidates, err := collectFiles(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, file := range candidates {
		hit, ok := classifyMatch(file, params.Query, params.Scope)
		if ok {
			hits = append(hits, hit)
		}
	}

	total := len(hits)
	if params.Offset > 0 {
		if params.Offset >= len(hits) {
			hits = nil
		} else {
			hits = hits[params.Offset:]
		}
	}
	if params.Limit > 0 && len(hits) > params.Limit {
		hits = hits[:params.Limit]
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return &SearchResults{Hits: hits, Total: total}, nil
}

// classifyMatch applies the fixed priority name > tag > notes within the
// fields the scope covers.
func classifyMatch(file File, query string, scope SearchScope) (SearchHit, bool) {
	lowered := strings.ToLower(query)

	if scope == ScopeName || scope == ScopeAll {
		if strings.Contains(strings.ToLower(file.Name), lowered) {
			return SearchHit{File: file, MatchType: "name", Snippet: file.Name}, true
		}
	}
	if scope == ScopeMetadata || scope == ScopeAll {
		for _, tag := range file.Tags {
			if strings.Contains(strings.ToLower(tag), lowered) {
				return SearchHit{File: file, MatchType: "tag", Snippet: tag}, true
			}
		}
		if idx := strings.Index(strings.ToLower(file.Notes), lowered); idx >= 0 {
			return SearchHit{File: file, MatchType: "notes", Snippet: notesSnippet(file.Notes, idx, len(query))}, true
		}
	}
	return SearchHit{}, false
}

// notesSnippet extracts a window of up to 50 bytes on either side of the
// match, widened outward to the nearest rune boundaries so the cut never
// splits a multi-byte character.
func notesSnippet(notes string, index, length int) string {
	start := index - 50
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(notes[start]) {
		start--
	}
	end := index + length + 50
	if end > len(notes) {
		end = len(notes)
	}
	for end < len(notes) && !utf8.RuneStart(notes[end]) {
		end++
	}
	snippet := notes[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(notes) {
		snippet += "..."
	}
	return snippet
}
