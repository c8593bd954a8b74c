package dms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// CreateReminder schedules a notification on a file for a target user
func (s *Store) CreateReminder(ctx context.Context, accountID, fileID, createdBy, targetUserID string, remindAt time.Time, message string) (*FileReminder, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}
	if targetUserID == "" {
		return nil, apperr.Validation("target user is required")
	}

	now := time.Now().UTC()
	reminder := &FileReminder{
		ID:           uuid.NewString(),
		FileID:       fileID,
		CreatedBy:    createdBy,
		TargetUserID: targetUserID,
		RemindAt:     remindAt.UTC(),
		Message:      message,
		Status:       ReminderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_reminders (id, file_id, created_by, target_user_id, remind_at, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reminder.ID, reminder.FileID, reminder.CreatedBy, reminder.TargetUserID,
		reminder.RemindAt, reminder.Message, reminder.Status, reminder.CreatedAt, reminder.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return reminder, nil
}

const reminderColumns = `r.id, r.file_id, r.created_by, r.target_user_id, r.remind_at, r.message, r.status, r.created_at, r.updated_at`

func scanReminders(rows *sql.Rows) ([]FileReminder, error) {
	var reminders []FileReminder
	for rows.Next() {
		var r FileReminder
		if err := rows.Scan(
			&r.ID, &r.FileID, &r.CreatedBy, &r.TargetUserID,
			&r.RemindAt, &r.Message, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// GetReminder retrieves a reminder, scoped to the account through its file
func (s *Store) GetReminder(ctx context.Context, accountID, reminderID string) (*FileReminder, error) {
	var r FileReminder
	err := s.db.QueryRowContext(ctx, `
		SELECT `+reminderColumns+`
		FROM file_reminders r
		JOIN files f ON f.id = r.file_id
		WHERE r.id = $1 AND f.account_id = $2`, reminderID, accountID).Scan(
		&r.ID, &r.FileID, &r.CreatedBy, &r.TargetUserID,
		&r.RemindAt, &r.Message, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("reminder not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &r, nil
}

// ListFileReminders lists a file's reminders, newest due date first
func (s *Store) ListFileReminders(ctx context.Context, accountID, fileID string, limit, offset int) ([]FileReminder, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM file_reminders r
		WHERE r.file_id = $1
		ORDER BY r.remind_at DESC LIMIT $2 OFFSET $3`, fileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// ListUserReminders lists reminders targeting a user within one account.
// With dueOnly set, only pending reminders whose due time has passed are
// returned.
func (s *Store) ListUserReminders(ctx context.Context, accountID, userID string, dueOnly bool, limit, offset int) ([]FileReminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM file_reminders r
		JOIN files f ON f.id = r.file_id
		WHERE r.target_user_id = $1 AND f.account_id = $2`
	args := []interface{}{userID, accountID}

	if dueOnly {
		args = append(args, string(ReminderPending), time.Now().UTC())
		query += fmt.Sprintf(` AND r.status = $%d AND r.remind_at <= $%d`, len(args)-1, len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY r.remind_at ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// UpdateReminderStatus transitions a reminder to a new status
func (s *Store) UpdateReminderStatus(ctx context.Context, accountID, reminderID string, status ReminderStatus) (*FileReminder, error) {
	if !KnownReminderStatus(status) {
		return nil, apperr.Validation("invalid status: %s", status)
	}

	reminder, err := s.GetReminder(ctx, accountID, reminderID)
	if err != nil {
		return nil, err
	}

	reminder.Status = status
	reminder.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE file_reminders SET status = $1, updated_at = $2 WHERE id = $3`,
		reminder.Status, reminder.UpdatedAt, reminder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	return reminder, nil
}

// DeleteReminder removes a reminder
func (s *Store) DeleteReminder(ctx context.Context, accountID, reminderID string) error {
	if _, err := s.GetReminder(ctx, accountID, reminderID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM file_reminders WHERE id = $1`, reminderID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// DueReminders returns all pending reminders across accounts whose due
// time has passed, oldest first. Used by the notification sweep.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]FileReminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM file_reminders r
		WHERE r.status = $1 AND r.remind_at <= $2
		ORDER BY r.remind_at ASC`, string(ReminderPending), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// MarkReminderSent transitions a due reminder to sent without an account
// scope; only the sweep calls it.
func (s *Store) MarkReminderSent(ctx context.Context, reminderID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE file_reminders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(ReminderSent), time.Now().UTC(), reminderID, string(ReminderPending))
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("pending reminder not found")
	}
	return nil
}
