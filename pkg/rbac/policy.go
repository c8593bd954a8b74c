package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// CreatePasswordPolicy creates a policy for an account, or the global
// policy when accountID is nil. One policy per account.
func (s *Store) CreatePasswordPolicy(ctx context.Context, accountID *string, policy PasswordPolicy) (*PasswordPolicy, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM password_policies
		WHERE (account_id IS NULL AND $1 IS NULL) OR account_id = $1`,
		accountID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check password policy: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("password policy already exists for this account")
	}

	now := time.Now().UTC()
	policy.ID = uuid.NewString()
	policy.AccountID = accountID
	policy.CreatedAt = now
	policy.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO password_policies (id, account_id, min_length, require_uppercase, require_lowercase,
			require_numbers, require_special_chars, min_special_chars, rotation_days, prevent_reuse_count,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		policy.ID, policy.AccountID, policy.MinLength,
		policy.RequireUppercase, policy.RequireLowercase, policy.RequireNumbers,
		policy.RequireSpecialChars, policy.MinSpecialChars,
		policy.RotationDays, policy.PreventReuseCount,
		policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create password policy: %w", err)
	}

	return &policy, nil
}

// GetPasswordPolicy retrieves the policy for an account, or the global
// policy when accountID is nil.
func (s *Store) GetPasswordPolicy(ctx context.Context, accountID *string) (*PasswordPolicy, error) {
	var p PasswordPolicy
	var aID sql.NullString
	var rotationDays sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, min_length, require_uppercase, require_lowercase,
			require_numbers, require_special_chars, min_special_chars, rotation_days, prevent_reuse_count,
			created_at, updated_at
		FROM password_policies
		WHERE (account_id IS NULL AND $1 IS NULL) OR account_id = $1`,
		accountID).Scan(
		&p.ID, &aID, &p.MinLength,
		&p.RequireUppercase, &p.RequireLowercase, &p.RequireNumbers,
		&p.RequireSpecialChars, &p.MinSpecialChars, &rotationDays, &p.PreventReuseCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("password policy not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password policy: %w", err)
	}
	if aID.Valid {
		v := aID.String
		p.AccountID = &v
	}
	if rotationDays.Valid {
		v := int(rotationDays.Int64)
		p.RotationDays = &v
	}
	return &p, nil
}

// EffectivePasswordPolicy returns the account's policy, falling back to
// the global policy and then to the built-in defaults.
func (s *Store) EffectivePasswordPolicy(ctx context.Context, accountID string) (*PasswordPolicy, error) {
	policy, err := s.GetPasswordPolicy(ctx, &accountID)
	if err == nil {
		return policy, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	policy, err = s.GetPasswordPolicy(ctx, nil)
	if err == nil {
		return policy, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	def := DefaultPasswordPolicy()
	return &def, nil
}

// UpdatePasswordPolicy applies partial changes to a policy
func (s *Store) UpdatePasswordPolicy(ctx context.Context, policyID string, update PasswordPolicyUpdate) (*PasswordPolicy, error) {
	var p PasswordPolicy
	var aID sql.NullString
	var rotationDays sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, min_length, require_uppercase, require_lowercase,
			require_numbers, require_special_chars, min_special_chars, rotation_days, prevent_reuse_count,
			created_at, updated_at
		FROM password_policies WHERE id = $1`, policyID).Scan(
		&p.ID, &aID, &p.MinLength,
		&p.RequireUppercase, &p.RequireLowercase, &p.RequireNumbers,
		&p.RequireSpecialChars, &p.MinSpecialChars, &rotationDays, &p.PreventReuseCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("password policy not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password policy: %w", err)
	}
	if aID.Valid {
		v := aID.String
		p.AccountID = &v
	}
	if rotationDays.Valid {
		v := int(rotationDays.Int64)
		p.RotationDays = &v
	}

	if update.MinLength != nil {
		p.MinLength = *update.MinLength
	}
	if update.RequireUppercase != nil {
		p.RequireUppercase = *update.RequireUppercase
	}
	if update.RequireLowercase != nil {
		p.RequireLowercase = *update.RequireLowercase
	}
	if update.RequireNumbers != nil {
		p.RequireNumbers = *update.RequireNumbers
	}
	if update.RequireSpecialChars != nil {
		p.RequireSpecialChars = *update.RequireSpecialChars
	}
	if update.MinSpecialChars != nil {
		p.MinSpecialChars = *update.MinSpecialChars
	}
	if update.RotationDays != nil {
		p.RotationDays = update.RotationDays
	}
	if update.PreventReuseCount != nil {
		p.PreventReuseCount = *update.PreventReuseCount
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE password_policies
		SET min_length = $1, require_uppercase = $2, require_lowercase = $3,
			require_numbers = $4, require_special_chars = $5, min_special_chars = $6,
			rotation_days = $7, prevent_reuse_count = $8, updated_at = $9
		WHERE id = $10`,
		p.MinLength, p.RequireUppercase, p.RequireLowercase,
		p.RequireNumbers, p.RequireSpecialChars, p.MinSpecialChars,
		p.RotationDays, p.PreventReuseCount, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update password policy: %w", err)
	}
	return &p, nil
}

// AddPasswordHistory records a prior password hash for reuse prevention
func (s *Store) AddPasswordHistory(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_history (id, user_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add password history: %w", err)
	}
	return nil
}

// GetPasswordHistory returns a user's most recent password hashes
func (s *Store) GetPasswordHistory(ctx context.Context, userID string, limit int) ([]PasswordHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, password_hash, created_at
		FROM password_history WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get password history: %w", err)
	}
	defer rows.Close()

	var history []PasswordHistory
	for rows.Next() {
		var h PasswordHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.PasswordHash, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan password history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ValidatePassword checks a candidate password against a policy and the
// user's hashed password history. The hashes function must report whether
// the candidate matches a stored hash (bcrypt etc. lives with the
// identity service, not here).
func ValidatePassword(policy *PasswordPolicy, password string, history []PasswordHistory, matches func(hash, password string) bool) error {
	var problems []string

	if len(password) < policy.MinLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", policy.MinLength))
	}

	var hasUpper, hasLower, hasNumber bool
	specialCount := 0
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			specialCount++
		}
	}

	if policy.RequireUppercase && !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if policy.RequireLowercase && !hasLower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if policy.RequireNumbers && !hasNumber {
		problems = append(problems, "must contain a number")
	}
	if policy.RequireSpecialChars && specialCount < policy.MinSpecialChars {
		problems = append(problems, fmt.Sprintf("must contain at least %d special characters", policy.MinSpecialChars))
	}

	if len(problems) > 0 {
		return apperr.Validation("password %s", strings.Join(problems, "; "))
	}

	if matches != nil && policy.PreventReuseCount > 0 {
		recent := history
		if len(recent) > policy.PreventReuseCount {
			recent = recent[:policy.PreventReuseCount]
		}
		for _, h := range recent {
			if matches(h.PasswordHash, password) {
				return apperr.Validation("password was used within the last %d changes", policy.PreventReuseCount)
			}
		}
	}

	return nil
}
