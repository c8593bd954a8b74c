package dms

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// CreateMetadataDefinition creates a custom field schema for an account,
// optionally scoped to one section. Keys are unique per account.
func (s *Store) CreateMetadataDefinition(ctx context.Context, def *MetadataDefinition) (*MetadataDefinition, error) {
	if !KnownFieldType(def.FieldType) {
		return nil, apperr.Validation("unknown field type: %s", def.FieldType)
	}
	if def.SectionID != nil {
		if _, err := s.GetSection(ctx, def.AccountID, *def.SectionID); err != nil {
			return nil, err
		}
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM metadata_definitions WHERE account_id = $1 AND key = $2`,
		def.AccountID, def.Key).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check metadata key: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("metadata key already exists for this account")
	}

	now := time.Now().UTC()
	created := *def
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata_definitions (id, account_id, section_id, key, label, field_type,
			description, is_required, options, validation_rules, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		created.ID, created.AccountID, created.SectionID, created.Key, created.Label,
		created.FieldType, created.Description, created.IsRequired,
		rawOrNil(created.Options), rawOrNil(created.ValidationRules),
		created.CreatedBy, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata definition: %w", err)
	}
	return &created, nil
}

func rawOrNil(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

const definitionColumns = `id, account_id, section_id, key, label, field_type,
	description, is_required, options, validation_rules, created_by, created_at, updated_at`

func scanDefinition(scan func(dest ...interface{}) error) (*MetadataDefinition, error) {
	var d MetadataDefinition
	var sectionID, options, rules sql.NullString
	err := scan(
		&d.ID, &d.AccountID, &sectionID, &d.Key, &d.Label, &d.FieldType,
		&d.Description, &d.IsRequired, &options, &rules,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sectionID.Valid {
		v := sectionID.String
		d.SectionID = &v
	}
	if options.Valid {
		d.Options = json.RawMessage(options.String)
	}
	if rules.Valid {
		d.ValidationRules = json.RawMessage(rules.String)
	}
	return &d, nil
}

// GetMetadataDefinition retrieves a definition scoped to its account
func (s *Store) GetMetadataDefinition(ctx context.Context, accountID, definitionID string) (*MetadataDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+definitionColumns+` FROM metadata_definitions WHERE id = $1 AND account_id = $2`,
		definitionID, accountID)
	def, err := scanDefinition(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("metadata definition not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata definition: %w", err)
	}
	return def, nil
}

// ListMetadataDefinitions lists an account's definitions; sectionID narrows
// to one section's definitions plus the account-wide ones.
func (s *Store) ListMetadataDefinitions(ctx context.Context, accountID string, sectionID *string) ([]MetadataDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+definitionColumns+` FROM metadata_definitions
		 WHERE account_id = $1 AND (section_id IS NULL OR $2 IS NULL OR section_id = $2)
		 ORDER BY key ASC`, accountID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata definitions: %w", err)
	}
	defer rows.Close()

	var defs []MetadataDefinition
	for rows.Next() {
		def, err := scanDefinition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata definition: %w", err)
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// UpdateMetadataDefinition applies partial changes to a definition. The
// field type cannot change once values exist against it.
func (s *Store) UpdateMetadataDefinition(ctx context.Context, accountID, definitionID string, update MetadataDefinitionUpdate) (*MetadataDefinition, error) {
	def, err := s.GetMetadataDefinition(ctx, accountID, definitionID)
	if err != nil {
		return nil, err
	}

	if update.Label != nil {
		def.Label = *update.Label
	}
	if update.Description != nil {
		def.Description = *update.Description
	}
	if update.IsRequired != nil {
		def.IsRequired = *update.IsRequired
	}
	if update.Options != nil {
		def.Options = *update.Options
	}
	if update.ValidationRules != nil {
		def.ValidationRules = *update.ValidationRules
	}
	def.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE metadata_definitions
		SET label = $1, description = $2, is_required = $3, options = $4, validation_rules = $5, updated_at = $6
		WHERE id = $7`,
		def.Label, def.Description, def.IsRequired,
		rawOrNil(def.Options), rawOrNil(def.ValidationRules), def.UpdatedAt, def.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update metadata definition: %w", err)
	}
	return def, nil
}

// DeleteMetadataDefinition removes a definition and cascades to its values
func (s *Store) DeleteMetadataDefinition(ctx context.Context, accountID, definitionID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM metadata_definitions WHERE id = $1 AND account_id = $2`,
		definitionID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete metadata definition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete metadata definition: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("metadata definition not found")
	}
	return nil
}

// UpdateFileMetadata upserts values per (file, definition) pair. Pairs not
// named in the request are left untouched. Each value is validated against
// its definition's field type and constraint bag before any write.
func (s *Store) UpdateFileMetadata(ctx context.Context, accountID, fileID string, values []MetadataValue) error {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return err
	}

	defs := make([]*MetadataDefinition, len(values))
	for i, v := range values {
		def, err := s.GetMetadataDefinition(ctx, accountID, v.DefinitionID)
		if err != nil {
			return err
		}
		if err := validateMetadataValue(def, v.Value); err != nil {
			return err
		}
		defs[i] = def
	}

	now := time.Now().UTC()
	for i, v := range values {
		var existingID string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM file_metadata WHERE file_id = $1 AND definition_id = $2`,
			fileID, v.DefinitionID).Scan(&existingID)
		switch {
		case err == sql.ErrNoRows:
			_, err = s.db.ExecContext(ctx, `
				INSERT INTO file_metadata (id, file_id, definition_id, value, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.NewString(), fileID, v.DefinitionID, rawOrNil(v.Value), now, now)
			if err != nil {
				return fmt.Errorf("failed to insert metadata value for %q: %w", defs[i].Key, err)
			}
		case err != nil:
			return fmt.Errorf("failed to check metadata value: %w", err)
		default:
			_, err = s.db.ExecContext(ctx,
				`UPDATE file_metadata SET value = $1, updated_at = $2 WHERE id = $3`,
				rawOrNil(v.Value), now, existingID)
			if err != nil {
				return fmt.Errorf("failed to update metadata value for %q: %w", defs[i].Key, err)
			}
		}
	}
	return nil
}

// GetFileMetadata returns a file's metadata values
func (s *Store) GetFileMetadata(ctx context.Context, accountID, fileID string) ([]FileMetadata, error) {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, definition_id, value, created_at, updated_at
		FROM file_metadata WHERE file_id = $1 ORDER BY created_at ASC`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file metadata: %w", err)
	}
	defer rows.Close()

	var metadata []FileMetadata
	for rows.Next() {
		var m FileMetadata
		var value sql.NullString
		if err := rows.Scan(&m.ID, &m.FileID, &m.DefinitionID, &value, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file metadata: %w", err)
		}
		if value.Valid {
			m.Value = json.RawMessage(value.String)
		}
		metadata = append(metadata, m)
	}
	return metadata, rows.Err()
}

// DeleteFileMetadata removes one value
func (s *Store) DeleteFileMetadata(ctx context.Context, accountID, fileID, definitionID string) error {
	if _, err := s.GetFile(ctx, accountID, fileID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM file_metadata WHERE file_id = $1 AND definition_id = $2`,
		fileID, definitionID)
	if err != nil {
		return fmt.Errorf("failed to delete metadata value: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete metadata value: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("metadata value not found")
	}
	return nil
}

// validationRules is the constraint bag a definition may carry.
type validationRules struct {
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	MinLength *int     `json:"min_length"`
	MaxLength *int     `json:"max_length"`
	Pattern   *string  `json:"pattern"`
}

func validateMetadataValue(def *MetadataDefinition, value json.RawMessage) error {
	if len(value) == 0 || string(value) == "null" {
		if def.IsRequired {
			return apperr.Validation("metadata field %q is required", def.Key)
		}
		return nil
	}

	var rules validationRules
	if len(def.ValidationRules) > 0 {
		if err := json.Unmarshal(def.ValidationRules, &rules); err != nil {
			return apperr.Validation("metadata definition %q has malformed validation rules", def.Key)
		}
	}

	switch def.FieldType {
	case FieldTypeText:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("metadata field %q expects a string", def.Key)
		}
		if rules.MinLength != nil && len(s) < *rules.MinLength {
			return apperr.Validation("metadata field %q is shorter than %d characters", def.Key, *rules.MinLength)
		}
		if rules.MaxLength != nil && len(s) > *rules.MaxLength {
			return apperr.Validation("metadata field %q is longer than %d characters", def.Key, *rules.MaxLength)
		}
		if rules.Pattern != nil {
			re, err := regexp.Compile(*rules.Pattern)
			if err != nil {
				return apperr.Validation("metadata definition %q has an invalid pattern", def.Key)
			}
			if !re.MatchString(s) {
				return apperr.Validation("metadata field %q does not match the required pattern", def.Key)
			}
		}
	case FieldTypeNumber:
		var n float64
		if err := json.Unmarshal(value, &n); err != nil {
			return apperr.Validation("metadata field %q expects a number", def.Key)
		}
		if rules.Min != nil && n < *rules.Min {
			return apperr.Validation("metadata field %q is below the minimum %v", def.Key, *rules.Min)
		}
		if rules.Max != nil && n > *rules.Max {
			return apperr.Validation("metadata field %q is above the maximum %v", def.Key, *rules.Max)
		}
	case FieldTypeDate:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("metadata field %q expects a date string", def.Key)
		}
		if !validDate(s) {
			return apperr.Validation("metadata field %q expects an ISO date", def.Key)
		}
	case FieldTypeBoolean:
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return apperr.Validation("metadata field %q expects a boolean", def.Key)
		}
	case FieldTypeSelect:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("metadata field %q expects a string", def.Key)
		}
		if err := checkOption(def, s); err != nil {
			return err
		}
	case FieldTypeMultiSelect:
		var vals []string
		if err := json.Unmarshal(value, &vals); err != nil {
			return apperr.Validation("metadata field %q expects a list of strings", def.Key)
		}
		for _, v := range vals {
			if err := checkOption(def, v); err != nil {
				return err
			}
		}
	default:
		return apperr.Validation("unknown field type: %s", def.FieldType)
	}
	return nil
}

func validDate(s string) bool {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func checkOption(def *MetadataDefinition, value string) error {
	if len(def.Options) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(def.Options, &options); err != nil {
		return apperr.Validation("metadata definition %q has malformed options", def.Key)
	}
	for _, opt := range options {
		if opt == value {
			return nil
		}
	}
	return apperr.Validation("metadata field %q does not allow value %q", def.Key, value)
}
