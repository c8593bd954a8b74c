package dms

import (
	"context"
	"testing"
	"time"

	"github.com/docvault/docvault/pkg/apperr"
)

func TestStore_Reminders(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()
	globex := newSecondAccount(t, store)

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")
	file := mustFile(t, store, acme, folder.ID, "contract.pdf", "h1")

	due := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(24 * time.Hour)

	overdue, err := store.CreateReminder(ctx, acme, file.ID, "user-1", "user-2", due, "renew the contract")
	if err != nil {
		t.Fatalf("create reminder failed: %v", err)
	}
	if overdue.Status != ReminderPending {
		t.Errorf("expected pending status, got %q", overdue.Status)
	}
	if _, err := store.CreateReminder(ctx, acme, file.ID, "user-1", "user-2", future, "follow up"); err != nil {
		t.Fatalf("create reminder failed: %v", err)
	}

	if _, err := store.CreateReminder(ctx, acme, file.ID, "user-1", "", due, "x"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error without target user, got %v", err)
	}

	byFile, err := store.ListFileReminders(ctx, acme, file.ID, 100, 0)
	if err != nil {
		t.Fatalf("list file reminders failed: %v", err)
	}
	if len(byFile) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(byFile))
	}

	// Due-only filter keeps just the overdue pending reminder
	dueList, err := store.ListUserReminders(ctx, acme, "user-2", true, 100, 0)
	if err != nil {
		t.Fatalf("list user reminders failed: %v", err)
	}
	if len(dueList) != 1 || dueList[0].ID != overdue.ID {
		t.Errorf("expected only the overdue reminder, got %d", len(dueList))
	}

	// Reminders are account-scoped through their file
	if _, err := store.GetReminder(ctx, globex, overdue.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for cross-account get, got %v", err)
	}

	if _, err := store.UpdateReminderStatus(ctx, acme, overdue.ID, "snoozed"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for invalid status, got %v", err)
	}
	dismissed, err := store.UpdateReminderStatus(ctx, acme, overdue.ID, ReminderDismissed)
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if dismissed.Status != ReminderDismissed {
		t.Errorf("expected dismissed, got %q", dismissed.Status)
	}

	// Dismissed reminders are no longer due
	dueList, _ = store.ListUserReminders(ctx, acme, "user-2", true, 100, 0)
	if len(dueList) != 0 {
		t.Errorf("expected no due reminders after dismissal, got %d", len(dueList))
	}

	if err := store.DeleteReminder(ctx, acme, dismissed.ID); err != nil {
		t.Fatalf("delete reminder failed: %v", err)
	}
	if err := store.DeleteReminder(ctx, acme, dismissed.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for double delete, got %v", err)
	}
}

func TestStore_DueReminderSweep(t *testing.T) {
	store, acme := newFixture(t)
	ctx := context.Background()

	section := mustSection(t, store, acme, "Docs")
	folder := mustFolder(t, store, acme, section.ID, nil, "inbox")
	file := mustFile(t, store, acme, folder.ID, "contract.pdf", "h1")

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	overdue, _ := store.CreateReminder(ctx, acme, file.ID, "user-1", "user-2", past, "due")
	pending, _ := store.CreateReminder(ctx, acme, file.ID, "user-1", "user-2", future, "later")

	due, err := store.DueReminders(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("due reminders failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != overdue.ID {
		t.Fatalf("expected only the overdue reminder, got %d", len(due))
	}

	if err := store.MarkReminderSent(ctx, overdue.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	// Already-sent reminders cannot be marked again
	if err := store.MarkReminderSent(ctx, overdue.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for repeat mark, got %v", err)
	}

	due, _ = store.DueReminders(ctx, time.Now().UTC())
	if len(due) != 0 {
		t.Errorf("expected sweep to drain due reminders, got %d", len(due))
	}

	got, _ := store.GetReminder(ctx, acme, pending.ID)
	if got.Status != ReminderPending {
		t.Errorf("future reminder should stay pending, got %q", got.Status)
	}
}
