package rbac

import (
	"time"
)

// Action is one of the five capabilities a permission row can grant
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAdmin  Action = "admin"
)

// KnownAction reports whether a is one of the five supported actions
func KnownAction(a Action) bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAdmin:
		return true
	}
	return false
}

// RoleType describes a user's standing within an account, distinct from
// the fine-grained Role entity.
const (
	RoleTypeOwner  = "owner"
	RoleTypeAdmin  = "admin"
	RoleTypeMember = "member"
)

// KnownRoleType reports whether rt is a valid account role type
func KnownRoleType(rt string) bool {
	switch rt {
	case RoleTypeOwner, RoleTypeAdmin, RoleTypeMember:
		return true
	}
	return false
}

// Account is the tenant boundary; all DMS and RBAC data hangs off it
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role is a named permission bundle. AccountID nil means a global role
// visible to every account. System roles are immutable.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AccountID   *string   `json:"account_id,omitempty"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleUpdate carries partial-field role changes; nil fields are left untouched
type RoleUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Module is an entry in the fixed catalog of protectable resource kinds
type Module struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission grants a role up to five capabilities on one module.
// Exactly one row exists per (role, module).
type Permission struct {
	ID        string    `json:"id"`
	RoleID    string    `json:"role_id"`
	ModuleID  string    `json:"module_id"`
	CanCreate bool      `json:"can_create"`
	CanRead   bool      `json:"can_read"`
	CanUpdate bool      `json:"can_update"`
	CanDelete bool      `json:"can_delete"`
	CanAdmin  bool      `json:"can_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allows reports whether the permission grants the given action.
// Unknown actions are never granted.
func (p Permission) Allows(a Action) bool {
	switch a {
	case ActionCreate:
		return p.CanCreate
	case ActionRead:
		return p.CanRead
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	case ActionAdmin:
		return p.CanAdmin
	}
	return false
}

// PermissionUpdate carries partial capability changes
type PermissionUpdate struct {
	CanCreate *bool `json:"can_create,omitempty"`
	CanRead   *bool `json:"can_read,omitempty"`
	CanUpdate *bool `json:"can_update,omitempty"`
	CanDelete *bool `json:"can_delete,omitempty"`
	CanAdmin  *bool `json:"can_admin,omitempty"`
}

// Group is a named collection of roles scoped to one account
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AccountID   string    `json:"account_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupUpdate carries partial-field group changes
type GroupUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AccountUser is a user's membership in an account with its coarse role type
type AccountUser struct {
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	RoleType  string    `json:"role_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// APIKey is an account-scoped bearer credential. Only the sha256 hash of
// the token is stored; the plaintext is returned once at creation.
type APIKey struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	Scopes     *string    `json:"scopes,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyUpdate carries partial-field API key changes
type APIKeyUpdate struct {
	Name      *string    `json:"name,omitempty"`
	Scopes    *string    `json:"scopes,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PasswordPolicy holds password constraints for one account, or the
// global defaults when AccountID is nil.
type PasswordPolicy struct {
	ID                  string    `json:"id"`
	AccountID           *string   `json:"account_id,omitempty"`
	MinLength           int       `json:"min_length"`
	RequireUppercase    bool      `json:"require_uppercase"`
	RequireLowercase    bool      `json:"require_lowercase"`
	RequireNumbers      bool      `json:"require_numbers"`
	RequireSpecialChars bool      `json:"require_special_chars"`
	MinSpecialChars     int       `json:"min_special_chars"`
	RotationDays        *int      `json:"rotation_days,omitempty"`
	PreventReuseCount   int       `json:"prevent_reuse_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PasswordPolicyUpdate carries partial-field policy changes
type PasswordPolicyUpdate struct {
	MinLength           *int  `json:"min_length,omitempty"`
	RequireUppercase    *bool `json:"require_uppercase,omitempty"`
	RequireLowercase    *bool `json:"require_lowercase,omitempty"`
	RequireNumbers      *bool `json:"require_numbers,omitempty"`
	RequireSpecialChars *bool `json:"require_special_chars,omitempty"`
	MinSpecialChars     *int  `json:"min_special_chars,omitempty"`
	RotationDays        *int  `json:"rotation_days,omitempty"`
	PreventReuseCount   *int  `json:"prevent_reuse_count,omitempty"`
}

// DefaultPasswordPolicy returns the global defaults applied when no
// policy row exists for an account.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:           8,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireNumbers:      true,
		RequireSpecialChars: true,
		MinSpecialChars:     1,
		PreventReuseCount:   5,
	}
}

// PasswordHistory is one prior password hash kept for reuse prevention
type PasswordHistory struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the verified caller resolved by the auth layer: either a
// user from the identity service or an API key acting on behalf of its
// creator. AccountID is set only for API-key identities and pins every
// permission check to that account.
type Identity struct {
	UserID     string  `json:"user_id"`
	SuperAdmin bool    `json:"super_admin"`
	AccountID  *string `json:"account_id,omitempty"`
}

// SystemModules returns the fixed catalog of protectable modules
func SystemModules() []Module {
	return []Module{
		{Key: "sections", DisplayName: "Sections", Description: "Document sections management"},
		{Key: "folders", DisplayName: "Folders", Description: "Folder management"},
		{Key: "files", DisplayName: "Files", Description: "File/document management"},
		{Key: "metadata", DisplayName: "Metadata", Description: "Document metadata management"},
		{Key: "approvals", DisplayName: "Approvals", Description: "Document approval workflows"},
		{Key: "admin_users", DisplayName: "User Administration", Description: "User and access management"},
		{Key: "sharing", DisplayName: "Sharing", Description: "Document sharing and collaboration"},
		{Key: "retention", DisplayName: "Retention", Description: "Document retention policies"},
		{Key: "audit", DisplayName: "Audit Logs", Description: "System audit and activity logs"},
		{Key: "inbox", DisplayName: "Inbox", Description: "Document inbox and notifications"},
		{Key: "accounts", DisplayName: "Accounts", Description: "Business account management"},
		{Key: "api", DisplayName: "API Access", Description: "API key and integration management"},
		{Key: "roles", DisplayName: "Roles", Description: "Role management"},
		{Key: "groups", DisplayName: "Groups", Description: "Group management"},
		{Key: "permissions", DisplayName: "Permissions", Description: "Permission management"},
	}
}
