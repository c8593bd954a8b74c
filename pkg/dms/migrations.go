package dms

import (
	"github.com/docvault/docvault/pkg/storage/postgres"
)

// Migrations returns the document-hierarchy schema migrations. Versions
// 20-39 are reserved for this package; the rbac accounts table must exist
// first. Tags, options, validation rules, and metadata values are stored
// as JSON text for portability.
func Migrations() []postgres.Migration {
	return []postgres.Migration{
		{
			Version:     20,
			Description: "Create sections table",
			SQL: `
				CREATE TABLE IF NOT EXISTS sections (
					id VARCHAR(36) PRIMARY KEY,
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					name VARCHAR(200) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					position INTEGER NOT NULL DEFAULT 0,
					created_by VARCHAR(36) NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_sections_account ON sections(account_id);
			`,
		},
		{
			Version:     21,
			Description: "Create folders table",
			SQL: `
				CREATE TABLE IF NOT EXISTS folders (
					id VARCHAR(36) PRIMARY KEY,
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					section_id VARCHAR(36) NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
					parent_folder_id VARCHAR(36) REFERENCES folders(id) ON DELETE CASCADE,
					name VARCHAR(200) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					created_by VARCHAR(36) NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE(section_id, parent_folder_id, name)
				);

				CREATE INDEX idx_folders_section ON folders(section_id);
				CREATE INDEX idx_folders_parent ON folders(parent_folder_id);
			`,
		},
		{
			Version:     22,
			Description: "Create files table",
			SQL: `
				CREATE TABLE IF NOT EXISTS files (
					id VARCHAR(36) PRIMARY KEY,
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					folder_id VARCHAR(36) NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
					document_id VARCHAR(50) NOT NULL,
					name VARCHAR(500) NOT NULL,
					original_filename VARCHAR(500) NOT NULL,
					mime_type VARCHAR(200) NOT NULL DEFAULT '',
					size_bytes BIGINT NOT NULL DEFAULT 0,
					storage_path VARCHAR(1000) NOT NULL,
					file_hash VARCHAR(64) NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '[]',
					notes TEXT NOT NULL DEFAULT '',
					is_office_doc BOOLEAN NOT NULL DEFAULT FALSE,
					office_type VARCHAR(50),
					office_url TEXT,
					created_by VARCHAR(36) NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
					deleted_at TIMESTAMP,
					UNIQUE(account_id, document_id)
				);

				CREATE INDEX idx_files_account_folder ON files(account_id, folder_id);
				CREATE INDEX idx_files_hash ON files(account_id, file_hash);
				CREATE INDEX idx_files_document_id ON files(document_id);
			`,
		},
		{
			Version:     23,
			Description: "Create metadata_definitions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS metadata_definitions (
					id VARCHAR(36) PRIMARY KEY,
					account_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					section_id VARCHAR(36) REFERENCES sections(id) ON DELETE CASCADE,
					key VARCHAR(100) NOT NULL,
					label VARCHAR(200) NOT NULL,
					field_type VARCHAR(50) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					is_required BOOLEAN NOT NULL DEFAULT FALSE,
					options TEXT,
					validation_rules TEXT,
					created_by VARCHAR(36) NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE(account_id, key)
				);

				CREATE INDEX idx_metadata_definitions_account ON metadata_definitions(account_id);
			`,
		},
		{
			Version:     24,
			Description: "Create file_metadata table",
			SQL: `
				CREATE TABLE IF NOT EXISTS file_metadata (
					id VARCHAR(36) PRIMARY KEY,
					file_id VARCHAR(36) NOT NULL REFERENCES files(id) ON DELETE CASCADE,
					definition_id VARCHAR(36) NOT NULL REFERENCES metadata_definitions(id) ON DELETE CASCADE,
					value TEXT,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					UNIQUE(file_id, definition_id)
				);

				CREATE INDEX idx_file_metadata_file ON file_metadata(file_id);
			`,
		},
		{
			Version:     25,
			Description: "Create related_files table",
			SQL: `
				CREATE TABLE IF NOT EXISTS related_files (
					id VARCHAR(36) PRIMARY KEY,
					file_id VARCHAR(36) NOT NULL REFERENCES files(id) ON DELETE CASCADE,
					related_file_id VARCHAR(36) NOT NULL REFERENCES files(id) ON DELETE CASCADE,
					relationship_type VARCHAR(50),
					created_by VARCHAR(36) NOT NULL,
					created_at TIMESTAMP NOT NULL,
					UNIQUE(file_id, related_file_id)
				);

				CREATE INDEX idx_related_files_file ON related_files(file_id);
				CREATE INDEX idx_related_files_related ON related_files(related_file_id);
			`,
		},
		{
			Version:     26,
			Description: "Create file_reminders table",
			SQL: `
				CREATE TABLE IF NOT EXISTS file_reminders (
					id VARCHAR(36) PRIMARY KEY,
					file_id VARCHAR(36) NOT NULL REFERENCES files(id) ON DELETE CASCADE,
					created_by VARCHAR(36) NOT NULL,
					target_user_id VARCHAR(36) NOT NULL,
					remind_at TIMESTAMP NOT NULL,
					message TEXT NOT NULL DEFAULT '',
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_file_reminders_file ON file_reminders(file_id);
				CREATE INDEX idx_file_reminders_target ON file_reminders(target_user_id, status, remind_at);
			`,
		},
		{
			Version:     27,
			Description: "Create file_comments table",
			SQL: `
				CREATE TABLE IF NOT EXISTS file_comments (
					id VARCHAR(36) PRIMARY KEY,
					file_id VARCHAR(36) NOT NULL REFERENCES files(id) ON DELETE CASCADE,
					author_id VARCHAR(36) NOT NULL,
					body TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX idx_file_comments_file ON file_comments(file_id);
			`,
		},
	}
}
