package dms

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

// CreateFolder creates a folder under a section, optionally nested inside a
// parent folder. The parent must belong to the same section, and sibling
// folders cannot share a name.
func (s *Store) CreateFolder(ctx context.Context, accountID, sectionID string, parentFolderID *string, name, description, createdBy string) (*Folder, error) {
	if _, err := s.GetSection(ctx, accountID, sectionID); err != nil {
		return nil, err
	}

	if parentFolderID != nil {
		parent, err := s.GetFolder(ctx, accountID, *parentFolderID)
		if err != nil {
			return nil, err
		}
		if parent.SectionID != sectionID {
			return nil, apperr.Validation("parent folder belongs to a different section")
		}
	}

	if err := s.checkSiblingName(ctx, sectionID, parentFolderID, name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder := &Folder{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		SectionID:      sectionID,
		ParentFolderID: parentFolderID,
		Name:           name,
		Description:    description,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (id, account_id, section_id, parent_folder_id, name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		folder.ID, folder.AccountID, folder.SectionID, folder.ParentFolderID,
		folder.Name, folder.Description, folder.CreatedBy, folder.CreatedAt, folder.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return folder, nil
}

func (s *Store) checkSiblingName(ctx context.Context, sectionID string, parentFolderID *string, name string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM folders
		WHERE section_id = $1
		  AND ((parent_folder_id IS NULL AND $2 IS NULL) OR parent_folder_id = $2)
		  AND name = $3`,
		sectionID, parentFolderID, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check folder name: %w", err)
	}
	if exists > 0 {
		return apperr.Conflict("folder name already exists in this location")
	}
	return nil
}

// GetFolder retrieves a folder scoped to its account
func (s *Store) GetFolder(ctx context.Context, accountID, folderID string) (*Folder, error) {
	var f Folder
	var parent sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, section_id, parent_folder_id, name, description, created_by, created_at, updated_at
		FROM folders WHERE id = $1 AND account_id = $2`, folderID, accountID).Scan(
		&f.ID, &f.AccountID, &f.SectionID, &parent,
		&f.Name, &f.Description, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("folder not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	if parent.Valid {
		v := parent.String
		f.ParentFolderID = &v
	}
	return &f, nil
}

// ListFolders lists the folders directly under a section, or under one
// parent folder when parentFolderID is set.
func (s *Store) ListFolders(ctx context.Context, accountID, sectionID string, parentFolderID *string) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, section_id, parent_folder_id, name, description, created_by, created_at, updated_at
		FROM folders
		WHERE account_id = $1 AND section_id = $2
		  AND ((parent_folder_id IS NULL AND $3 IS NULL) OR parent_folder_id = $3)
		ORDER BY name ASC`, accountID, sectionID, parentFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()
	return scanFolders(rows)
}

func scanFolders(rows *sql.Rows) ([]Folder, error) {
	var folders []Folder
	for rows.Next() {
		var f Folder
		var parent sql.NullString
		if err := rows.Scan(
			&f.ID, &f.AccountID, &f.SectionID, &parent,
			&f.Name, &f.Description, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		if parent.Valid {
			v := parent.String
			f.ParentFolderID = &v
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// UpdateFolder applies partial changes to a folder. Renames re-check
// sibling uniqueness; moves additionally require the new parent to be in
// the same section and outside the folder's own subtree.
func (s *Store) UpdateFolder(ctx context.Context, accountID, folderID string, update FolderUpdate) (*Folder, error) {
	folder, err := s.GetFolder(ctx, accountID, folderID)
	if err != nil {
		return nil, err
	}

	name := folder.Name
	if update.Name != nil {
		name = *update.Name
	}
	parent := folder.ParentFolderID
	if update.ParentFolderID != nil {
		newParent, err := s.GetFolder(ctx, accountID, *update.ParentFolderID)
		if err != nil {
			return nil, err
		}
		if newParent.SectionID != folder.SectionID {
			return nil, apperr.Validation("parent folder belongs to a different section")
		}
		if err := s.checkNotDescendant(ctx, accountID, folderID, newParent); err != nil {
			return nil, err
		}
		parent = update.ParentFolderID
	}

	if name != folder.Name || !equalParent(parent, folder.ParentFolderID) {
		if err := s.checkSiblingName(ctx, folder.SectionID, parent, name); err != nil {
			return nil, err
		}
	}

	folder.Name = name
	folder.ParentFolderID = parent
	if update.Description != nil {
		folder.Description = *update.Description
	}
	folder.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE folders SET name = $1, description = $2, parent_folder_id = $3, updated_at = $4
		WHERE id = $5`,
		folder.Name, folder.Description, folder.ParentFolderID, folder.UpdatedAt, folder.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return folder, nil
}

func equalParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// checkNotDescendant walks candidate's ancestor chain and rejects the move
// if folderID appears in it. The walk is bounded so corrupt parent links
// cannot loop forever.
func (s *Store) checkNotDescendant(ctx context.Context, accountID, folderID string, candidate *Folder) error {
	const maxDepth = 1000
	current := candidate
	for depth := 0; depth < maxDepth; depth++ {
		if current.ID == folderID {
			return apperr.Validation("cannot move a folder into its own subtree")
		}
		if current.ParentFolderID == nil {
			return nil
		}
		next, err := s.GetFolder(ctx, accountID, *current.ParentFolderID)
		if err != nil {
			return err
		}
		current = next
	}
	return apperr.Internal(nil, "folder hierarchy too deep or cyclic")
}

// DeleteFolder removes a folder. The delete is hard and cascades to
// subfolders and files; blob cleanup is the transfer layer's concern.
func (s *Store) DeleteFolder(ctx context.Context, accountID, folderID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM folders WHERE id = $1 AND account_id = $2`, folderID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("folder not found")
	}
	return nil
}

// FolderTree builds the nested folder structure for a section. Each node
// carries its immediate subfolders and a count of non-deleted files. A
// cycle in the stored hierarchy fails the call instead of looping.
func (s *Store) FolderTree(ctx context.Context, accountID, sectionID string) ([]*FolderNode, error) {
	if _, err := s.GetSection(ctx, accountID, sectionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, section_id, parent_folder_id, name, description, created_by, created_at, updated_at
		FROM folders WHERE account_id = $1 AND section_id = $2`, accountID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}
	folders, err := scanFolders(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	countRows, err := s.db.QueryContext(ctx, `
		SELECT f.folder_id, COUNT(1)
		FROM files f
		JOIN folders d ON d.id = f.folder_id
		WHERE f.account_id = $1 AND d.section_id = $2 AND f.is_deleted = FALSE
		GROUP BY f.folder_id`, accountID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	for countRows.Next() {
		var folderID string
		var count int
		if err := countRows.Scan(&folderID, &count); err != nil {
			countRows.Close()
			return nil, fmt.Errorf("failed to scan file count: %w", err)
		}
		counts[folderID] = count
	}
	if err := countRows.Err(); err != nil {
		countRows.Close()
		return nil, err
	}
	countRows.Close()

	nodes := make(map[string]*FolderNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &FolderNode{Folder: f, FileCount: counts[f.ID]}
	}

	var roots []*FolderNode
	for _, node := range nodes {
		if node.ParentFolderID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentFolderID]
		if !ok {
			// Parent outside the section; treat as a root
			roots = append(roots, node)
			continue
		}
		parent.Subfolders = append(parent.Subfolders, node)
	}

	// Every node must be reachable from a root; anything left over means
	// the parent links form a cycle.
	reachable := 0
	var walk func(n *FolderNode) error
	seen := make(map[string]bool, len(nodes))
	walk = func(n *FolderNode) error {
		if seen[n.ID] {
			return apperr.Internal(nil, "folder hierarchy contains a cycle")
		}
		seen[n.ID] = true
		reachable++
		sort.Slice(n.Subfolders, func(i, j int) bool { return n.Subfolders[i].Name < n.Subfolders[j].Name })
		for _, child := range n.Subfolders {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	for _, root := range roots {
		if err := walk(root); err != nil {
			return nil, err
		}
	}
	if reachable != len(nodes) {
		return nil, apperr.Internal(nil, "folder hierarchy contains a cycle")
	}
	return roots, nil
}
