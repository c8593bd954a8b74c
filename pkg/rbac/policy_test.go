package rbac

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/docvault/docvault/pkg/apperr"
)

func TestValidatePassword(t *testing.T) {
	policy := DefaultPasswordPolicy()

	if err := ValidatePassword(&policy, "Sup3rSecret!", nil, nil); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}

	err := ValidatePassword(&policy, "short", nil, nil)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// All failures reported at once, not just the first
	for _, want := range []string{"at least 8 characters", "uppercase", "number", "special"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %q", want, err.Error())
		}
	}

	err = ValidatePassword(&policy, "NoSpecials123", nil, nil)
	if !apperr.IsValidation(err) || !strings.Contains(err.Error(), "special") {
		t.Errorf("expected special char failure, got %v", err)
	}

	strict := policy
	strict.MinSpecialChars = 3
	if err := ValidatePassword(&strict, "Sup3rSecret!?", nil, nil); !apperr.IsValidation(err) {
		t.Errorf("expected failure with two specials when three required, got %v", err)
	}
	if err := ValidatePassword(&strict, "Sup3rSecret!?#", nil, nil); err != nil {
		t.Errorf("expected three specials to pass, got %v", err)
	}
}

func TestValidatePassword_ReusePrevention(t *testing.T) {
	policy := DefaultPasswordPolicy()
	matches := func(hash, password string) bool { return hash == "hash:"+password }

	history := []PasswordHistory{
		{PasswordHash: "hash:Sup3rSecret!1"},
		{PasswordHash: "hash:Sup3rSecret!2"},
	}

	err := ValidatePassword(&policy, "Sup3rSecret!1", history, matches)
	if !apperr.IsValidation(err) || !strings.Contains(err.Error(), "used within the last") {
		t.Errorf("expected reuse rejection, got %v", err)
	}
	if err := ValidatePassword(&policy, "Sup3rSecret!3", history, matches); err != nil {
		t.Errorf("expected fresh password to pass, got %v", err)
	}

	// Only the most recent PreventReuseCount entries are checked
	policy.PreventReuseCount = 1
	if err := ValidatePassword(&policy, "Sup3rSecret!2", history, matches); err != nil {
		t.Errorf("expected password beyond reuse window to pass, got %v", err)
	}
}

func TestStore_PasswordPolicies(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	acme, _ := store.CreateAccount(ctx, "Acme", "acme")
	globex, _ := store.CreateAccount(ctx, "Globex", "globex")

	// No policies anywhere: built-in defaults
	eff, err := store.EffectivePasswordPolicy(ctx, acme.ID)
	if err != nil {
		t.Fatalf("EffectivePasswordPolicy failed: %v", err)
	}
	if eff.MinLength != 8 || !eff.RequireUppercase {
		t.Errorf("expected built-in defaults, got %+v", eff)
	}

	global := DefaultPasswordPolicy()
	global.MinLength = 10
	if _, err := store.CreatePasswordPolicy(ctx, nil, global); err != nil {
		t.Fatalf("create global policy failed: %v", err)
	}

	account := DefaultPasswordPolicy()
	account.MinLength = 16
	created, err := store.CreatePasswordPolicy(ctx, &acme.ID, account)
	if err != nil {
		t.Fatalf("create account policy failed: %v", err)
	}

	// One policy per account
	if _, err := store.CreatePasswordPolicy(ctx, &acme.ID, account); !apperr.IsConflict(err) {
		t.Errorf("expected conflict on second account policy, got %v", err)
	}
	if _, err := store.CreatePasswordPolicy(ctx, nil, global); !apperr.IsConflict(err) {
		t.Errorf("expected conflict on second global policy, got %v", err)
	}

	// Account with its own policy gets it; account without falls back to global
	eff, _ = store.EffectivePasswordPolicy(ctx, acme.ID)
	if eff.MinLength != 16 {
		t.Errorf("expected account policy min length 16, got %d", eff.MinLength)
	}
	eff, _ = store.EffectivePasswordPolicy(ctx, globex.ID)
	if eff.MinLength != 10 {
		t.Errorf("expected global fallback min length 10, got %d", eff.MinLength)
	}

	rotation := 90
	minLen := 12
	updated, err := store.UpdatePasswordPolicy(ctx, created.ID, PasswordPolicyUpdate{
		MinLength:    &minLen,
		RotationDays: &rotation,
	})
	if err != nil {
		t.Fatalf("UpdatePasswordPolicy failed: %v", err)
	}
	if updated.MinLength != 12 || updated.RotationDays == nil || *updated.RotationDays != 90 {
		t.Errorf("partial update not applied: %+v", updated)
	}
	if !updated.RequireUppercase {
		t.Error("untouched fields should be preserved")
	}

	if _, err := store.UpdatePasswordPolicy(ctx, "missing", PasswordPolicyUpdate{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_PasswordHistory(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i, hash := range []string{"h1", "h2", "h3"} {
		// Distinct timestamps so ordering by created_at is deterministic
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO password_history (id, user_id, password_hash, created_at)
			VALUES ($1, $2, $3, $4)`,
			hash+"-id", "user-1", hash, base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("insert history failed: %v", err)
		}
	}

	history, err := store.GetPasswordHistory(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("GetPasswordHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].PasswordHash != "h3" || history[1].PasswordHash != "h2" {
		t.Errorf("expected newest first, got %q then %q", history[0].PasswordHash, history[1].PasswordHash)
	}

	if err := store.AddPasswordHistory(ctx, "user-2", "h4"); err != nil {
		t.Fatalf("AddPasswordHistory failed: %v", err)
	}
	other, _ := store.GetPasswordHistory(ctx, "user-2", 10)
	if len(other) != 1 {
		t.Errorf("expected 1 entry for user-2, got %d", len(other))
	}
}
