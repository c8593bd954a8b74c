package rbac

import (
	"context"
	"strings"
	"testing"

	"github.com/docvault/docvault/pkg/apperr"
)

func TestStore_Accounts(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	acme, err := store.CreateAccount(ctx, "Acme Corp", "acme")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if acme.ID == "" || !acme.IsActive {
		t.Errorf("unexpected account: %+v", acme)
	}

	// Slug must be globally unique
	if _, err := store.CreateAccount(ctx, "Other", "acme"); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate slug, got %v", err)
	}

	got, err := store.GetAccountBySlug(ctx, "acme")
	if err != nil {
		t.Fatalf("GetAccountBySlug failed: %v", err)
	}
	if got.ID != acme.ID {
		t.Errorf("expected %s, got %s", acme.ID, got.ID)
	}

	inactive := false
	updated, err := store.UpdateAccount(ctx, acme.ID, nil, &inactive)
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	if updated.IsActive {
		t.Error("expected account to be inactive")
	}
	if updated.Name != "Acme Corp" {
		t.Errorf("name should be unchanged, got %q", updated.Name)
	}

	if err := store.DeleteAccount(ctx, acme.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := store.GetAccount(ctx, acme.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := store.DeleteAccount(ctx, acme.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for second delete, got %v", err)
	}
}

func TestStore_RoleUniquenessPerAccount(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	acme, err := store.CreateAccount(ctx, "Acme", "acme")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	globex, err := store.CreateAccount(ctx, "Globex", "globex")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	if _, err := store.CreateRole(ctx, "editor", "", &acme.ID, false); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	// Same (name, account) must conflict
	if _, err := store.CreateRole(ctx, "editor", "", &acme.ID, false); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate role name, got %v", err)
	}

	// Same name under another account is fine
	if _, err := store.CreateRole(ctx, "editor", "", &globex.ID, false); err != nil {
		t.Errorf("expected success for different account, got %v", err)
	}

	// Same name as a global role is also fine
	if _, err := store.CreateRole(ctx, "editor", "", nil, false); err != nil {
		t.Errorf("expected success for global role, got %v", err)
	}
	if _, err := store.CreateRole(ctx, "editor", "", nil, false); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate global role, got %v", err)
	}
}

func TestStore_SystemRoleImmutable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	role, err := store.CreateRole(ctx, "platform-admin", "built in", nil, true)
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	name := "renamed"
	if _, err := store.UpdateRole(ctx, role.ID, RoleUpdate{Name: &name}); !apperr.IsImmutable(err) {
		t.Errorf("expected immutable error on update, got %v", err)
	}
	if err := store.DeleteRole(ctx, role.ID); !apperr.IsImmutable(err) {
		t.Errorf("expected immutable error on delete, got %v", err)
	}

	// Still present and unchanged
	got, err := store.GetRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetRole failed: %v", err)
	}
	if got.Name != "platform-admin" {
		t.Errorf("system role was mutated: %q", got.Name)
	}
}

func TestStore_Groups(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	acme, _ := store.CreateAccount(ctx, "Acme", "acme")
	globex, _ := store.CreateAccount(ctx, "Globex", "globex")

	group, err := store.CreateGroup(ctx, "finance", "finance team", acme.ID)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := store.CreateGroup(ctx, "finance", "", acme.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate group name, got %v", err)
	}
	if _, err := store.CreateGroup(ctx, "finance", "", globex.ID); err != nil {
		t.Errorf("expected success for different account, got %v", err)
	}

	// Lookups through the wrong account never leak existence
	if _, err := store.GetGroup(ctx, globex.ID, group.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for cross-account lookup, got %v", err)
	}

	desc := "updated"
	updated, err := store.UpdateGroup(ctx, acme.ID, group.ID, GroupUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if updated.Description != "updated" || updated.Name != "finance" {
		t.Errorf("unexpected group after update: %+v", updated)
	}
}

func TestStore_SeedModules(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	if err := store.SeedModules(ctx); err != nil {
		t.Fatalf("SeedModules failed: %v", err)
	}
	modules, err := store.ListModules(ctx)
	if err != nil {
		t.Fatalf("ListModules failed: %v", err)
	}
	if len(modules) != len(SystemModules()) {
		t.Errorf("expected %d modules, got %d", len(SystemModules()), len(modules))
	}

	// Idempotent
	if err := store.SeedModules(ctx); err != nil {
		t.Fatalf("second SeedModules failed: %v", err)
	}
	modules, _ = store.ListModules(ctx)
	if len(modules) != len(SystemModules()) {
		t.Errorf("seed is not idempotent: %d modules", len(modules))
	}

	if _, err := store.CreateModule(ctx, "files", "Files", ""); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate module key, got %v", err)
	}
}

func TestStore_Permissions(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	if err := store.SeedModules(ctx); err != nil {
		t.Fatalf("SeedModules failed: %v", err)
	}
	role, _ := store.CreateRole(ctx, "viewer", "", nil, false)
	files, _ := store.GetModuleByKey(ctx, "files")

	perm, err := store.CreatePermission(ctx, &Permission{
		RoleID:   role.ID,
		ModuleID: files.ID,
		CanRead:  true,
	})
	if err != nil {
		t.Fatalf("CreatePermission failed: %v", err)
	}

	// One permission row per (role, module)
	if _, err := store.CreatePermission(ctx, &Permission{RoleID: role.ID, ModuleID: files.ID}); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate permission, got %v", err)
	}

	canDelete := true
	updated, err := store.UpdatePermission(ctx, perm.ID, PermissionUpdate{CanDelete: &canDelete})
	if err != nil {
		t.Fatalf("UpdatePermission failed: %v", err)
	}
	if !updated.CanRead || !updated.CanDelete || updated.CanAdmin {
		t.Errorf("unexpected capabilities after update: %+v", updated)
	}

	if err := store.DeletePermission(ctx, perm.ID); err != nil {
		t.Fatalf("DeletePermission failed: %v", err)
	}
	if err := store.DeletePermission(ctx, perm.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for second delete, got %v", err)
	}
}

func TestStore_Assignments(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	acme, _ := store.CreateAccount(ctx, "Acme", "acme")
	role, _ := store.CreateRole(ctx, "editor", "", &acme.ID, false)
	group, _ := store.CreateGroup(ctx, "finance", "", acme.ID)

	const user = "user-1"

	if err := store.AssignRoleToUser(ctx, user, role.ID); err != nil {
		t.Fatalf("AssignRoleToUser failed: %v", err)
	}
	if err := store.AssignRoleToUser(ctx, user, role.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate role assignment, got %v", err)
	}

	if err := store.AssignGroupToUser(ctx, user, group.ID); err != nil {
		t.Fatalf("AssignGroupToUser failed: %v", err)
	}
	if err := store.AssignGroupToUser(ctx, user, group.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate group assignment, got %v", err)
	}

	if err := store.AssignRoleToGroup(ctx, group.ID, role.ID); err != nil {
		t.Fatalf("AssignRoleToGroup failed: %v", err)
	}
	if err := store.AssignRoleToGroup(ctx, group.ID, role.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate group role, got %v", err)
	}

	if err := store.AssignUserToAccount(ctx, user, acme.ID, ""); err != nil {
		t.Fatalf("AssignUserToAccount failed: %v", err)
	}
	if err := store.AssignUserToAccount(ctx, user, acme.ID, RoleTypeAdmin); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate membership, got %v", err)
	}
	if err := store.AssignUserToAccount(ctx, "user-2", acme.ID, "czar"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown role type, got %v", err)
	} else if !strings.Contains(err.Error(), "invalid role type: czar") {
		t.Errorf("expected the rejected role type in the message, got %v", err)
	}
	if err := store.UpdateUserAccountRole(ctx, user, acme.ID, "czar"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown role type on update, got %v", err)
	}

	rt, err := store.GetAccountRoleType(ctx, user, acme.ID)
	if err != nil || rt != RoleTypeMember {
		t.Errorf("expected member role type, got %q, %v", rt, err)
	}
	if err := store.UpdateUserAccountRole(ctx, user, acme.ID, RoleTypeOwner); err != nil {
		t.Fatalf("UpdateUserAccountRole failed: %v", err)
	}
	rt, _ = store.GetAccountRoleType(ctx, user, acme.ID)
	if rt != RoleTypeOwner {
		t.Errorf("expected owner, got %q", rt)
	}

	// Removing an assignment that does not exist is an error, not a no-op
	if err := store.RemoveRoleFromUser(ctx, user, role.ID); err != nil {
		t.Fatalf("RemoveRoleFromUser failed: %v", err)
	}
	if err := store.RemoveRoleFromUser(ctx, user, role.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for second removal, got %v", err)
	}
	if err := store.RemoveGroupFromUser(ctx, "user-9", group.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for absent assignment, got %v", err)
	}
	if err := store.RemoveUserFromAccount(ctx, "user-9", acme.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for absent membership, got %v", err)
	}
}

func TestStore_AccountDeleteCascades(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	acme, _ := store.CreateAccount(ctx, "Acme", "acme")
	role, _ := store.CreateRole(ctx, "editor", "", &acme.ID, false)
	group, _ := store.CreateGroup(ctx, "finance", "", acme.ID)

	if err := store.DeleteAccount(ctx, acme.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if _, err := store.GetRole(ctx, role.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected role cascade, got %v", err)
	}
	if _, err := store.GetGroup(ctx, acme.ID, group.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected group cascade, got %v", err)
	}
}
