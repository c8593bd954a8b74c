package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docvault/docvault/pkg/apperr"
)

// AssignRoleToUser grants a role directly to a user. Duplicate
// assignment is a conflict, not a no-op.
func (s *Store) AssignRoleToUser(ctx context.Context, userID, roleID string) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check role assignment: %w", err)
	}
	if exists > 0 {
		return apperr.Conflict("role already assigned to user")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, $3)`,
		userID, roleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to assign role to user: %w", err)
	}
	return nil
}

// RemoveRoleFromUser revokes a direct role assignment
func (s *Store) RemoveRoleFromUser(ctx context.Context, userID, roleID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role from user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("role assignment not found")
	}
	return nil
}

// AssignGroupToUser adds a user to a group
func (s *Store) AssignGroupToUser(ctx context.Context, userID, groupID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM user_groups WHERE user_id = $1 AND group_id = $2`,
		userID, groupID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group assignment: %w", err)
	}
	if exists > 0 {
		return apperr.Conflict("group already assigned to user")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_id, created_at) VALUES ($1, $2, $3)`,
		userID, groupID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to assign group to user: %w", err)
	}
	return nil
}

// RemoveGroupFromUser removes a user from a group
func (s *Store) RemoveGroupFromUser(ctx context.Context, userID, groupID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_groups WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to remove group from user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("group assignment not found")
	}
	return nil
}

// AssignRoleToGroup grants a role to every member of a group
func (s *Store) AssignRoleToGroup(ctx context.Context, groupID, roleID string) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM group_roles WHERE group_id = $1 AND role_id = $2`,
		groupID, roleID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group role: %w", err)
	}
	if exists > 0 {
		return apperr.Conflict("role already assigned to group")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO group_roles (group_id, role_id, created_at) VALUES ($1, $2, $3)`,
		groupID, roleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to assign role to group: %w", err)
	}
	return nil
}

// RemoveRoleFromGroup revokes a group's role
func (s *Store) RemoveRoleFromGroup(ctx context.Context, groupID, roleID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_roles WHERE group_id = $1 AND role_id = $2`, groupID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role from group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("group role not found")
	}
	return nil
}

// AssignUserToAccount adds a user to an account with the given role type
func (s *Store) AssignUserToAccount(ctx context.Context, userID, accountID, roleType string) error {
	if roleType == "" {
		roleType = RoleTypeMember
	}
	if !KnownRoleType(roleType) {
		return apperr.Validation("invalid role type: %s", roleType)
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM account_users WHERE user_id = $1 AND account_id = $2`,
		userID, accountID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check account membership: %w", err)
	}
	if exists > 0 {
		return apperr.Conflict("user already assigned to account")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO account_users (account_id, user_id, role_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		accountID, userID, roleType, now, now)
	if err != nil {
		return fmt.Errorf("failed to assign user to account: %w", err)
	}
	return nil
}

// RemoveUserFromAccount removes a user's account membership
func (s *Store) RemoveUserFromAccount(ctx context.Context, userID, accountID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM account_users WHERE user_id = $1 AND account_id = $2`, userID, accountID)
	if err != nil {
		return fmt.Errorf("failed to remove user from account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("account membership not found")
	}
	return nil
}

// UpdateUserAccountRole changes a user's role type within an account
func (s *Store) UpdateUserAccountRole(ctx context.Context, userID, accountID, roleType string) error {
	if !KnownRoleType(roleType) {
		return apperr.Validation("invalid role type: %s", roleType)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE account_users SET role_type = $1, updated_at = $2
		WHERE user_id = $3 AND account_id = $4`,
		roleType, time.Now().UTC(), userID, accountID)
	if err != nil {
		return fmt.Errorf("failed to update account role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("account membership not found")
	}
	return nil
}

// GetAccountRoleType returns the user's role type within an account,
// or NotFound when the user is not a member.
func (s *Store) GetAccountRoleType(ctx context.Context, userID, accountID string) (string, error) {
	var roleType string
	err := s.db.QueryRowContext(ctx,
		`SELECT role_type FROM account_users WHERE user_id = $1 AND account_id = $2`,
		userID, accountID).Scan(&roleType)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("account membership not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to get account role type: %w", err)
	}
	return roleType, nil
}

// ListAccountUsers lists an account's memberships
func (s *Store) ListAccountUsers(ctx context.Context, accountID string) ([]AccountUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, user_id, role_type, created_at, updated_at
		FROM account_users WHERE account_id = $1 ORDER BY created_at ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account users: %w", err)
	}
	defer rows.Close()

	var members []AccountUser
	for rows.Next() {
		var m AccountUser
		if err := rows.Scan(&m.AccountID, &m.UserID, &m.RoleType, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account user: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListUserRoles returns the user's direct roles
func (s *Store) ListUserRoles(ctx context.Context, userID string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.account_id, r.is_system, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	defer rows.Close()
	return scanRoles(rows)
}

// ListGroupRoles returns the roles granted to a group
func (s *Store) ListGroupRoles(ctx context.Context, groupID string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.account_id, r.is_system, r.created_at, r.updated_at
		FROM roles r
		JOIN group_roles gr ON gr.role_id = r.id
		WHERE gr.group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group roles: %w", err)
	}
	defer rows.Close()
	return scanRoles(rows)
}

// ListUserGroupRoles returns roles the user holds via membership in the
// given account's groups.
func (s *Store) ListUserGroupRoles(ctx context.Context, userID, accountID string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.id, r.name, r.description, r.account_id, r.is_system, r.created_at, r.updated_at
		FROM roles r
		JOIN group_roles gr ON gr.role_id = r.id
		JOIN user_groups ug ON ug.group_id = gr.group_id
		JOIN groups g ON g.id = gr.group_id
		WHERE ug.user_id = $1 AND g.account_id = $2`, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user group roles: %w", err)
	}
	defer rows.Close()
	return scanRoles(rows)
}

func scanRoles(rows *sql.Rows) ([]Role, error) {
	var roles []Role
	for rows.Next() {
		var r Role
		var accountID sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &accountID, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if accountID.Valid {
			id := accountID.String
			r.AccountID = &id
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
