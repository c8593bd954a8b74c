package dms

import (
	"encoding/json"
	"time"
)

// FieldType enumerates the value types a metadata definition can declare.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeBoolean     FieldType = "boolean"
)

// KnownFieldType reports whether t is a supported metadata field type.
func KnownFieldType(t FieldType) bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeMultiSelect, FieldTypeBoolean:
		return true
	}
	return false
}

// ReminderStatus enumerates the lifecycle states of a file reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderDismissed ReminderStatus = "dismissed"
)

// KnownReminderStatus reports whether s is a valid reminder status.
func KnownReminderStatus(s ReminderStatus) bool {
	switch s {
	case ReminderPending, ReminderSent, ReminderDismissed:
		return true
	}
	return false
}

// OfficeType enumerates supported office document kinds.
type OfficeType string

const (
	OfficeWord       OfficeType = "word"
	OfficeExcel      OfficeType = "excel"
	OfficePowerPoint OfficeType = "powerpoint"
)

// KnownOfficeType reports whether t is a supported office document type.
func KnownOfficeType(t OfficeType) bool {
	switch t {
	case OfficeWord, OfficeExcel, OfficePowerPoint:
		return true
	}
	return false
}

// Section is a top-level container within an account, ordered by position.
type Section struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SectionUpdate carries partial changes to a section.
type SectionUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// Folder belongs to one section and optionally to a parent folder in the
// same section. Sibling folders cannot share a name.
type Folder struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	SectionID      string    `json:"section_id"`
	ParentFolderID *string   `json:"parent_folder_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FolderUpdate carries partial changes to a folder. Setting ParentFolderID
// moves the folder; the new parent must be in the same section and must not
// be the folder itself or one of its descendants.
type FolderUpdate struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
}

// FolderNode is one node of a section's folder tree.
type FolderNode struct {
	Folder
	FileCount  int           `json:"file_count"`
	Subfolders []*FolderNode `json:"subfolders"`
}

// File is a stored document. StoragePath is the object-store key; DocumentID
// is the human-facing identifier, unique per account.
type File struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"account_id"`
	FolderID         string     `json:"folder_id"`
	DocumentID       string     `json:"document_id"`
	Name             string     `json:"name"`
	OriginalFilename string     `json:"original_filename"`
	MimeType         string     `json:"mime_type"`
	SizeBytes        int64      `json:"size_bytes"`
	StoragePath      string     `json:"storage_path"`
	FileHash         string     `json:"file_hash"`
	Tags             []string   `json:"tags"`
	Notes            string     `json:"notes"`
	IsOfficeDoc      bool       `json:"is_office_doc"`
	OfficeType       *string    `json:"office_type,omitempty"`
	OfficeURL        *string    `json:"office_url,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	IsDeleted        bool       `json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// FileUpdate carries partial changes to a file. Setting FolderID moves the
// file; the target folder must belong to the same account.
type FileUpdate struct {
	Name      *string   `json:"name,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
	FolderID  *string   `json:"folder_id,omitempty"`
	OfficeURL *string   `json:"office_url,omitempty"`
}

// MetadataDefinition is a per-account custom field schema, optionally
// scoped to one section. Options holds the choices for select types;
// ValidationRules is a constraint bag (min, max, min_length, max_length,
// pattern).
type MetadataDefinition struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	SectionID       *string         `json:"section_id,omitempty"`
	Key             string          `json:"key"`
	Label           string          `json:"label"`
	FieldType       FieldType       `json:"field_type"`
	Description     string          `json:"description"`
	IsRequired      bool            `json:"is_required"`
	Options         json.RawMessage `json:"options,omitempty"`
	ValidationRules json.RawMessage `json:"validation_rules,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MetadataDefinitionUpdate carries partial changes to a definition.
// FieldType is deliberately absent: changing the type would orphan the
// existing values.
type MetadataDefinitionUpdate struct {
	Label           *string          `json:"label,omitempty"`
	Description     *string          `json:"description,omitempty"`
	IsRequired      *bool            `json:"is_required,omitempty"`
	Options         *json.RawMessage `json:"options,omitempty"`
	ValidationRules *json.RawMessage `json:"validation_rules,omitempty"`
}

// FileMetadata is one value per (file, definition) pair.
type FileMetadata struct {
	ID           string          `json:"id"`
	FileID       string          `json:"file_id"`
	DefinitionID string          `json:"definition_id"`
	Value        json.RawMessage `json:"value"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MetadataValue is one (definition, value) pair in an upsert request.
type MetadataValue struct {
	DefinitionID string          `json:"definition_id"`
	Value        json.RawMessage `json:"value"`
}

// RelatedFile is a directed link between two files.
type RelatedFile struct {
	ID               string    `json:"id"`
	FileID           string    `json:"file_id"`
	RelatedFileID    string    `json:"related_file_id"`
	RelationshipType *string   `json:"relationship_type,omitempty"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// FileReminder is a scheduled notification tied to a file.
type FileReminder struct {
	ID           string         `json:"id"`
	FileID       string         `json:"file_id"`
	CreatedBy    string         `json:"created_by"`
	TargetUserID string         `json:"target_user_id"`
	RemindAt     time.Time      `json:"remind_at"`
	Message      string         `json:"message"`
	Status       ReminderStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FileComment is an author-owned note on a file.
type FileComment struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
