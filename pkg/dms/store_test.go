package dms

import (
	"context"
	"testing"

	"github.com/docvault/docvault/pkg/apperr"
	"github.com/docvault/docvault/pkg/rbac"
)

// newFixture returns a store plus a fresh account id.
func newFixture(t *testing.T) (*Store, string) {
	t.Helper()
	db := NewTestDB(t)
	account, err := rbac.NewStore(db).CreateAccount(context.Background(), "Acme", "acme")
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	return NewStore(db), account.ID
}

func newSecondAccount(t *testing.T, store *Store) string {
	t.Helper()
	account, err := rbac.NewStore(store.DB()).CreateAccount(context.Background(), "Globex", "globex")
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	return account.ID
}

func mustSection(t *testing.T, store *Store, accountID, name string) *Section {
	t.Helper()
	section, err := store.CreateSection(context.Background(), accountID, name, "", 0, "user-1")
	if err != nil {
		t.Fatalf("create section failed: %v", err)
	}
	return section
}

func mustFolder(t *testing.T, store *Store, accountID, sectionID string, parent *string, name string) *Folder {
	t.Helper()
	folder, err := store.CreateFolder(context.Background(), accountID, sectionID, parent, name, "", "user-1")
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	return folder
}

func mustFile(t *testing.T, store *Store, accountID, folderID, name, hash string) *File {
	t.Helper()
	file, err := store.CreateFile(context.Background(), &File{
		AccountID:        accountID,
		FolderID:         folderID,
		Name:             name,
		OriginalFilename: name,
		MimeType:         "application/octet-stream",
		SizeBytes:        int64(len(name)),
		StoragePath:      "files/" + accountID + "/" + folderID + "/" + name,
		FileHash:         hash,
		CreatedBy:        "user-1",
	})
	if err != nil {
		t.Fatalf("create file failed: %v", err)
	}
	return file
}

func TestStore_Sections(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()
	globex := newSecondAccount(t, store)

	first := mustSection(t, store, acme, "Contracts")
	second, err := store.CreateSection(ctx, acme, "Invoices", "billing docs", 1, "user-1")
	if err != nil {
		t.Fatalf("create section failed: %v", err)
	}

	// Cross-account lookups mask existence
	if _, err := store.GetSection(ctx, globex, first.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for cross-account get, got %v", err)
	}

	sections, err := store.ListSections(ctx, acme, 100, 0)
	if err != nil {
		t.Fatalf("list sections failed: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].ID != first.ID {
		t.Errorf("expected position ordering, got %q first", sections[0].Name)
	}

	pos := 5
	name := "Archived Invoices"
	updated, err := store.UpdateSection(ctx, acme, second.ID, SectionUpdate{Name: &name, Position: &pos})
	if err != nil {
		t.Fatalf("update section failed: %v", err)
	}
	if updated.Name != name || updated.Position != 5 {
		t.Errorf("partial update not applied: %+v", updated)
	}
	if updated.Description != "billing docs" {
		t.Error("untouched fields should be preserved")
	}

	if err := store.DeleteSection(ctx, acme, second.ID); err != nil {
		t.Fatalf("delete section failed: %v", err)
	}
	if err := store.DeleteSection(ctx, acme, second.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for double delete, got %v", err)
	}
}

func TestStore_FolderSiblingUniqueness(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Contracts")
	parent := mustFolder(t, store, acme, section.ID, nil, "2024")

	if _, err := store.CreateFolder(ctx, acme, section.ID, nil, "2024", "", "user-1"); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate root folder name, got %v", err)
	}

	// Same name is fine under a different parent
	mustFolder(t, store, acme, section.ID, &parent.ID, "2024")
	if _, err := store.CreateFolder(ctx, acme, section.ID, &parent.ID, "2024", "", "user-1"); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate nested folder name, got %v", err)
	}
}

func TestStore_FolderParentValidation(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	contracts := mustSection(t, store, acme, "Contracts")
	invoices := mustSection(t, store, acme, "Invoices")
	other := mustFolder(t, store, acme, invoices.ID, nil, "Paid")

	if _, err := store.CreateFolder(ctx, acme, contracts.ID, &other.ID, "Q1", "", "user-1"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for cross-section parent, got %v", err)
	}

	missing := "no-such-folder"
	if _, err := store.CreateFolder(ctx, acme, contracts.ID, &missing, "Q1", "", "user-1"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for missing parent, got %v", err)
	}
}

func TestStore_FolderMove(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Contracts")
	top := mustFolder(t, store, acme, section.ID, nil, "top")
	mid := mustFolder(t, store, acme, section.ID, &top.ID, "mid")
	leaf := mustFolder(t, store, acme, section.ID, &mid.ID, "leaf")

	// Moving a folder into its own subtree must fail
	if _, err := store.UpdateFolder(ctx, acme, top.ID, FolderUpdate{ParentFolderID: &leaf.ID}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for move into own subtree, got %v", err)
	}

	moved, err := store.UpdateFolder(ctx, acme, leaf.ID, FolderUpdate{ParentFolderID: &top.ID})
	if err != nil {
		t.Fatalf("move folder failed: %v", err)
	}
	if moved.ParentFolderID == nil || *moved.ParentFolderID != top.ID {
		t.Errorf("expected parent %s, got %v", top.ID, moved.ParentFolderID)
	}

	// Rename into a sibling's name must fail
	mustFolder(t, store, acme, section.ID, &top.ID, "other")
	name := "other"
	if _, err := store.UpdateFolder(ctx, acme, leaf.ID, FolderUpdate{Name: &name}); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate sibling name, got %v", err)
	}
}

func TestStore_SectionDeleteCascades(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Contracts")
	folder := mustFolder(t, store, acme, section.ID, nil, "2024")
	nested := mustFolder(t, store, acme, section.ID, &folder.ID, "Q1")
	file := mustFile(t, store, acme, nested.ID, "contract.pdf", "hash-1")

	if err := store.DeleteSection(ctx, acme, section.ID); err != nil {
		t.Fatalf("delete section failed: %v", err)
	}

	if _, err := store.GetFolder(ctx, acme, folder.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected folder gone after section delete, got %v", err)
	}
	if _, err := store.GetFolder(ctx, acme, nested.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected nested folder gone after section delete, got %v", err)
	}
	if _, err := store.GetFile(ctx, acme, file.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected file gone after section delete, got %v", err)
	}
}

func TestStore_FolderTree(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Contracts")
	alpha := mustFolder(t, store, acme, section.ID, nil, "alpha")
	beta := mustFolder(t, store, acme, section.ID, nil, "beta")
	child := mustFolder(t, store, acme, section.ID, &alpha.ID, "child")
	mustFile(t, store, acme, child.ID, "a.pdf", "h1")
	mustFile(t, store, acme, child.ID, "b.pdf", "h2")
	deleted := mustFile(t, store, acme, child.ID, "c.pdf", "h3")
	if err := store.SoftDeleteFile(ctx, acme, deleted.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	tree, err := store.FolderTree(ctx, acme, section.ID)
	if err != nil {
		t.Fatalf("folder tree failed: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].ID != alpha.ID || tree[1].ID != beta.ID {
		t.Errorf("expected name-ordered roots alpha, beta")
	}
	if len(tree[0].Subfolders) != 1 || tree[0].Subfolders[0].ID != child.ID {
		t.Fatalf("expected alpha to contain child")
	}
	// Soft-deleted files are not counted
	if got := tree[0].Subfolders[0].FileCount; got != 2 {
		t.Errorf("expected file count 2, got %d", got)
	}
}

func TestStore_FolderTreeDetectsCycle(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Contracts")
	a := mustFolder(t, store, acme, section.ID, nil, "a")
	b := mustFolder(t, store, acme, section.ID, &a.ID, "b")

	// Corrupt the hierarchy directly; the store's move guard would refuse this
	if _, err := store.DB().Exec(`UPDATE folders SET parent_folder_id = $1 WHERE id = $2`, b.ID, a.ID); err != nil {
		t.Fatalf("failed to corrupt hierarchy: %v", err)
	}

	_, err := store.FolderTree(ctx, acme, section.ID)
	if err == nil {
		t.Fatal("expected cycle detection to fail the call")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}
