package dms

import (
	"context"
	"testing"

	"github.com/docvault/docvault/pkg/apperr"
)

func TestStore_Comments(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()
	globex := newSecondAccount(t, store)

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")
	file := mustFile(t, store, acme, folder.ID, "contract.pdf", "h1")

	comment, err := store.CreateComment(ctx, acme, file.ID, "user-1", "looks good")
	if err != nil {
		t.Fatalf("create comment failed: %v", err)
	}
	if _, err := store.CreateComment(ctx, acme, file.ID, "user-2", ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty body, got %v", err)
	}

	if _, err := store.GetComment(ctx, globex, comment.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for cross-account get, got %v", err)
	}

	// Only the author can edit or delete
	if _, err := store.UpdateComment(ctx, acme, comment.ID, "user-2", "edited"); !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden for non-author edit, got %v", err)
	}
	if err := store.DeleteComment(ctx, acme, comment.ID, "user-2"); !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden for non-author delete, got %v", err)
	}

	updated, err := store.UpdateComment(ctx, acme, comment.ID, "user-1", "revised")
	if err != nil {
		t.Fatalf("update comment failed: %v", err)
	}
	if updated.Body != "revised" {
		t.Errorf("expected body updated, got %q", updated.Body)
	}

	if _, err := store.CreateComment(ctx, acme, file.ID, "user-2", "second"); err != nil {
		t.Fatalf("create comment failed: %v", err)
	}
	comments, err := store.ListComments(ctx, acme, file.ID, 100, 0)
	if err != nil {
		t.Fatalf("list comments failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}

	if err := store.DeleteComment(ctx, acme, comment.ID, "user-1"); err != nil {
		t.Fatalf("delete comment failed: %v", err)
	}
	if _, err := store.GetComment(ctx, acme, comment.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected comment gone, got %v", err)
	}
}
