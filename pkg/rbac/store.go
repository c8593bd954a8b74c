package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// Store handles RBAC data persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new RBAC store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that share transactions
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateAccount creates a new account, guarding slug uniqueness
func (s *Store) CreateAccount(ctx context.Context, name, slug string) (*Account, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE slug = $1`, slug).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check account slug: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("account slug already exists")
	}

	now := time.Now().UTC()
	account := &Account{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, slug, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Name, account.Slug, account.IsActive,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account by ID
func (s *Store) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var a Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM accounts WHERE id = $1`, accountID).Scan(
		&a.ID, &a.Name, &a.Slug, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// GetAccountBySlug retrieves an account by its unique slug
func (s *Store) GetAccountBySlug(ctx context.Context, slug string) (*Account, error) {
	var a Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM accounts WHERE slug = $1`, slug).Scan(
		&a.ID, &a.Name, &a.Slug, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// ListAccounts lists accounts with pagination
func (s *Store) ListAccounts(ctx context.Context, limit, offset int) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM accounts ORDER BY name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies partial changes to an account
func (s *Store) UpdateAccount(ctx context.Context, accountID string, name *string, isActive *bool) (*Account, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		account.Name = *name
	}
	if isActive != nil {
		account.IsActive = *isActive
	}
	account.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE accounts SET name = $1, is_active = $2, updated_at = $3 WHERE id = $4`,
		account.Name, account.IsActive, account.UpdatedAt, account.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}

// DeleteAccount removes an account; owned entities cascade
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// CreateRole creates a role, guarding (name, account_id) uniqueness
func (s *Store) CreateRole(ctx context.Context, name, description string, accountID *string, isSystem bool) (*Role, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM roles
		WHERE name = $1 AND ((account_id IS NULL AND $2 IS NULL) OR account_id = $2)`,
		name, accountID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("role name already exists for this account")
	}

	now := time.Now().UTC()
	role := &Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AccountID:   accountID,
		IsSystem:    isSystem,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, account_id, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		role.ID, role.Name, role.Description, role.AccountID, role.IsSystem,
		role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return role, nil
}

// GetRole retrieves a role by ID
func (s *Store) GetRole(ctx context.Context, roleID string) (*Role, error) {
	var r Role
	var accountID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, account_id, is_system, created_at, updated_at
		FROM roles WHERE id = $1`, roleID).Scan(
		&r.ID, &r.Name, &r.Description, &accountID, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("role not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if accountID.Valid {
		id := accountID.String
		r.AccountID = &id
	}
	return &r, nil
}

// ListRoles lists global roles plus, when accountID is given, that
// account's roles
func (s *Store) ListRoles(ctx context.Context, accountID *string, limit, offset int) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, account_id, is_system, created_at, updated_at
		FROM roles
		WHERE account_id IS NULL OR account_id = $1
		ORDER BY is_system DESC, name ASC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		var aID sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &aID, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if aID.Valid {
			id := aID.String
			r.AccountID = &id
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// UpdateRole applies partial changes; system roles are immutable
func (s *Store) UpdateRole(ctx context.Context, roleID string, update RoleUpdate) (*Role, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperr.Immutable("cannot modify system role")
	}

	if update.Name != nil {
		role.Name = *update.Name
	}
	if update.Description != nil {
		role.Description = *update.Description
	}
	role.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE roles SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		role.Name, role.Description, role.UpdatedAt, role.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a role; system roles are immutable
func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperr.Immutable("cannot delete system role")
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

// CreateGroup creates a group, guarding (name, account_id) uniqueness
func (s *Store) CreateGroup(ctx context.Context, name, description, accountID string) (*Group, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM groups WHERE name = $1 AND account_id = $2`,
		name, accountID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check group name: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("group name already exists for this account")
	}

	now := time.Now().UTC()
	group := &Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AccountID:   accountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		group.ID, group.Name, group.Description, group.AccountID,
		group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// GetGroup retrieves a group scoped to its account
func (s *Store) GetGroup(ctx context.Context, accountID, groupID string) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, account_id, created_at, updated_at
		FROM groups WHERE id = $1 AND account_id = $2`, groupID, accountID).Scan(
		&g.ID, &g.Name, &g.Description, &g.AccountID, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("group not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

// ListGroups lists an account's groups
func (s *Store) ListGroups(ctx context.Context, accountID string, limit, offset int) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, account_id, created_at, updated_at
		FROM groups WHERE account_id = $1
		ORDER BY name ASC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.AccountID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpdateGroup applies partial changes to a group
func (s *Store) UpdateGroup(ctx context.Context, accountID, groupID string, update GroupUpdate) (*Group, error) {
	group, err := s.GetGroup(ctx, accountID, groupID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		group.Name = *update.Name
	}
	if update.Description != nil {
		group.Description = *update.Description
	}
	group.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE groups SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		group.Name, group.Description, group.UpdatedAt, group.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group and its role/user associations
func (s *Store) DeleteGroup(ctx context.Context, accountID, groupID string) error {
	if _, err := s.GetGroup(ctx, accountID, groupID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// CreateModule creates a catalog module, guarding key uniqueness
func (s *Store) CreateModule(ctx context.Context, key, displayName, description string) (*Module, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM modules WHERE key = $1`, key).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check module key: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("module key already exists")
	}

	module := &Module{
		ID:          uuid.NewString(),
		Key:         key,
		DisplayName: displayName,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO modules (id, key, display_name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		module.ID, module.Key, module.DisplayName, module.Description,
		module.IsActive, module.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	return module, nil
}

// GetModuleByKey retrieves a module by its unique key
func (s *Store) GetModuleByKey(ctx context.Context, key string) (*Module, error) {
	var m Module
	err := s.db.QueryRowContext(ctx, `
		SELECT id, key, display_name, description, is_active, created_at
		FROM modules WHERE key = $1`, key).Scan(
		&m.ID, &m.Key, &m.DisplayName, &m.Description, &m.IsActive, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("module not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return &m, nil
}

// ListModules lists the module catalog
func (s *Store) ListModules(ctx context.Context) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, display_name, description, is_active, created_at
		FROM modules ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Key, &m.DisplayName, &m.Description, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// SeedModules inserts any missing system modules; existing keys are kept
func (s *Store) SeedModules(ctx context.Context) error {
	for _, m := range SystemModules() {
		if _, err := s.GetModuleByKey(ctx, m.Key); err == nil {
			continue
		} else if !apperr.IsNotFound(err) {
			return err
		}
		if _, err := s.CreateModule(ctx, m.Key, m.DisplayName, m.Description); err != nil {
			return fmt.Errorf("failed to seed module %s: %w", m.Key, err)
		}
	}
	return nil
}

// CreatePermission creates a permission row, guarding (role, module) uniqueness
func (s *Store) CreatePermission(ctx context.Context, p *Permission) (*Permission, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM permissions WHERE role_id = $1 AND module_id = $2`,
		p.RoleID, p.ModuleID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check permission: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("permission already exists for this role and module")
	}

	now := time.Now().UTC()
	created := *p
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO permissions (id, role_id, module_id, can_create, can_read, can_update, can_delete, can_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		created.ID, created.RoleID, created.ModuleID,
		created.CanCreate, created.CanRead, created.CanUpdate, created.CanDelete, created.CanAdmin,
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	return &created, nil
}

// GetPermission retrieves a permission by ID
func (s *Store) GetPermission(ctx context.Context, permissionID string) (*Permission, error) {
	var p Permission
	err := s.db.QueryRowContext(ctx, `
		SELECT id, role_id, module_id, can_create, can_read, can_update, can_delete, can_admin, created_at, updated_at
		FROM permissions WHERE id = $1`, permissionID).Scan(
		&p.ID, &p.RoleID, &p.ModuleID,
		&p.CanCreate, &p.CanRead, &p.CanUpdate, &p.CanDelete, &p.CanAdmin,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("permission not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &p, nil
}

// ListPermissionsByRole lists all permission rows for a role
func (s *Store) ListPermissionsByRole(ctx context.Context, roleID string) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role_id, module_id, can_create, can_read, can_update, can_delete, can_admin, created_at, updated_at
		FROM permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(
			&p.ID, &p.RoleID, &p.ModuleID,
			&p.CanCreate, &p.CanRead, &p.CanUpdate, &p.CanDelete, &p.CanAdmin,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// UpdatePermission applies partial capability changes
func (s *Store) UpdatePermission(ctx context.Context, permissionID string, update PermissionUpdate) (*Permission, error) {
	p, err := s.GetPermission(ctx, permissionID)
	if err != nil {
		return nil, err
	}

	if update.CanCreate != nil {
		p.CanCreate = *update.CanCreate
	}
	if update.CanRead != nil {
		p.CanRead = *update.CanRead
	}
	if update.CanUpdate != nil {
		p.CanUpdate = *update.CanUpdate
	}
	if update.CanDelete != nil {
		p.CanDelete = *update.CanDelete
	}
	if update.CanAdmin != nil {
		p.CanAdmin = *update.CanAdmin
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE permissions
		SET can_create = $1, can_read = $2, can_update = $3, can_delete = $4, can_admin = $5, updated_at = $6
		WHERE id = $7`,
		p.CanCreate, p.CanRead, p.CanUpdate, p.CanDelete, p.CanAdmin, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update permission: %w", err)
	}
	return p, nil
}

// DeletePermission removes a permission row
func (s *Store) DeletePermission(ctx context.Context, permissionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, permissionID)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("permission not found")
	}
	return nil
}
