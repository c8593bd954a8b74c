package rbac

import (
	"github.com/docvault/docvault/pkg/storage/postgres"
)

// Migrations returns the RBAC schema migrations. Versions 1-19 are
// reserved for this package. User identities live in the external
// identity service, so user_id columns carry no foreign key.
func Migrations() []postgres.Migration {
	return []postgres.Migration{
		{
			Version:     1,
			Description: "Create accounts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS accounts (
					id VARCHAR(36) PRIMARY KEY,
					name VARCHAR(200) NOT NULL,
					slug VARCHAR(100) NOT NULL UNIQUE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_accounts_slug ON accounts(slug);
			`,
		},
		{
			Version:     2,
			Description: "Create roles table",
			SQL: `
				CREATE TABLE IF NOT EXISTS roles (
					id VARCHAR(36) PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					account_id VARCHAR(36) REFERENCES accounts(id) ON DELETE CASCADE,
					is_system BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE(name, account_id)
				);

				CREATE INDEX idx_roles_account_id ON roles(account_id);
				CREATE INDEX idx_roles_name ON roles(name);
			`,
		},
		{
			Version:     3,
			Description: "Create groups table",
			SQL: `
				CREATE TABLE IF NOT EXISTS groups (
					id VARCHAR(36) PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE(name, account_id)
				);

				CREATE INDEX idx_groups_account_id ON groups(account_id);
			`,
		},
		{
			Version:     4,
			Description: "Create modules table",
			SQL: `
				CREATE TABLE IF NOT EXISTS modules (
					id VARCHAR(36) PRIMARY KEY,
					key VARCHAR(50) NOT NULL UNIQUE,
					display_name VARCHAR(100) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_modules_key ON modules(key);
			`,
		},
		{
			Version:     5,
			Description: "Create permissions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS permissions (
					id VARCHAR(36) PRIMARY KEY,
					role_id VARCHAR(36) NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					module_id VARCHAR(36) NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
					can_create BOOLEAN NOT NULL DEFAULT FALSE,
					can_read BOOLEAN NOT NULL DEFAULT FALSE,
					can_update BOOLEAN NOT NULL DEFAULT FALSE,
					can_delete BOOLEAN NOT NULL DEFAULT FALSE,
					can_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE(role_id, module_id)
				);

				CREATE INDEX idx_permissions_role_id ON permissions(role_id);
				CREATE INDEX idx_permissions_module_id ON permissions(module_id);
			`,
		},
		{
			Version:     6,
			Description: "Create assignment tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS user_roles (
					user_id VARCHAR(36) NOT NULL,
					role_id VARCHAR(36) NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL,
					PRIMARY KEY (user_id, role_id)
				);

				CREATE TABLE IF NOT EXISTS user_groups (
					user_id VARCHAR(36) NOT NULL,
					group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL,
					PRIMARY KEY (user_id, group_id)
				);

				CREATE TABLE IF NOT EXISTS group_roles (
					group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					role_id VARCHAR(36) NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL,
					PRIMARY KEY (group_id, role_id)
				);

				CREATE TABLE IF NOT EXISTS account_users (
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					user_id VARCHAR(36) NOT NULL,
					role_type VARCHAR(20) NOT NULL DEFAULT 'member',
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					PRIMARY KEY (account_id, user_id)
				);

				CREATE INDEX idx_user_roles_user_id ON user_roles(user_id);
				CREATE INDEX idx_user_groups_user_id ON user_groups(user_id);
				CREATE INDEX idx_group_roles_group_id ON group_roles(group_id);
				CREATE INDEX idx_account_users_user_id ON account_users(user_id);
			`,
		},
		{
			Version:     7,
			Description: "Create api_keys table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_keys (
					id VARCHAR(36) PRIMARY KEY,
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					name VARCHAR(200) NOT NULL,
					token_hash VARCHAR(255) NOT NULL UNIQUE,
					scopes TEXT,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_by VARCHAR(36) NOT NULL,
					created_at TIMESTAMP NOT NULL,
					expires_at TIMESTAMP,
					last_used_at TIMESTAMP
				);

				CREATE INDEX idx_api_keys_account_id ON api_keys(account_id);
				CREATE INDEX idx_api_keys_token_hash ON api_keys(token_hash);
			`,
		},
		{
			Version:     8,
			Description: "Create password policy tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS password_policies (
					id VARCHAR(36) PRIMARY KEY,
					account_id VARCHAR(36) UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
					min_length INTEGER NOT NULL DEFAULT 8,
					require_uppercase BOOLEAN NOT NULL DEFAULT TRUE,
					require_lowercase BOOLEAN NOT NULL DEFAULT TRUE,
					require_numbers BOOLEAN NOT NULL DEFAULT TRUE,
					require_special_chars BOOLEAN NOT NULL DEFAULT TRUE,
					min_special_chars INTEGER NOT NULL DEFAULT 1,
					rotation_days INTEGER,
					prevent_reuse_count INTEGER NOT NULL DEFAULT 5,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE TABLE IF NOT EXISTS password_history (
					id VARCHAR(36) PRIMARY KEY,
					user_id VARCHAR(36) NOT NULL,
					password_hash TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_password_history_user_id ON password_history(user_id);
			`,
		},
	}
}
