package tree

import (
	"context"
	"fmt"

	"github.com/nexushq/drivefs/internal/logger"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// RenameResult reports the outcome of a rename/move cascade.
//
// A cascade that migrated some files and failed on others still
// returns a nil error; FailedFileIDs carries the stragglers. Failed
// files keep their old physical key and old record, so a retried
// rename recomputes and finishes just their migrations.
type RenameResult struct {
	// Renamed is false when the requested change was a no-op.
	Renamed bool `json:"renamed"`

	// MigratedCount is the number of files whose blob key was rewritten.
	MigratedCount int `json:"migrated_count"`

	// FailedFileIDs lists files whose key migration failed and which
	// therefore still live under the old key.
	FailedFileIDs []metadata.FileID `json:"failed_file_ids"`
}

// fileMigration is one descendant file captured by the pre-cascade
// snapshot, with the folder-name segments from the renamed folder down
// to the file's parent (empty for files directly inside it).
type fileMigration struct {
	file *metadata.File
	rel  []string
}

// cascadeRename applies the name/parent change to folder and migrates
// every descendant file's blob key. The caller holds the subtree lock
// and has already validated the destination and sibling uniqueness.
//
// Each file migrates from the key its record holds to the key the new
// folder names dictate. Working from the record rather than a
// recomputed old prefix makes the cascade a reconciliation: a file
// whose migration failed in an earlier run still carries its old key
// and gets picked up again by the next rename touching the subtree,
// even a rename to the same name. The folder record is persisted only
// after the file loop, so a crash mid-cascade leaves metadata naming
// the old paths and every unmigrated file still consistent.
func (s *Service) cascadeRename(ctx context.Context, folder *metadata.Folder, newName string, newParent *metadata.FolderID) (*RenameResult, error) {
	changed := newName != folder.Name || !sameParent(folder.ParentID, newParent)

	newParentDir, err := pathSegments(ctx, s.store, newParent)
	if err != nil {
		return nil, err
	}
	newDir := append(newParentDir, newName)

	migrations, err := s.snapshotSubtreeFiles(ctx, folder)
	if err != nil {
		return nil, err
	}

	result := &RenameResult{Renamed: changed}
	for _, m := range migrations {
		oldKey := m.file.PhysicalKey
		newKey := joinKey(append(newDir, m.rel...), m.file.Basename)
		if oldKey == newKey {
			continue
		}

		if err := s.migrateFile(ctx, m.file, oldKey, newKey); err != nil {
			logger.Warn("file migration failed for %s (%s -> %s): %v", m.file.ID, oldKey, newKey, err)
			result.FailedFileIDs = append(result.FailedFileIDs, m.file.ID)
			continue
		}
		result.MigratedCount++
	}

	if changed {
		folder.Name = newName
		folder.ParentID = newParent
		if err := s.store.UpdateFolder(ctx, folder); err != nil {
			return result, fmt.Errorf("failed to persist folder after migrating %d files: %w",
				result.MigratedCount, err)
		}
	}

	if changed || result.MigratedCount > 0 || len(result.FailedFileIDs) > 0 {
		logger.Info("renamed folder %s to %q (migrated %d files, %d failed)",
			folder.ID, newName, result.MigratedCount, len(result.FailedFileIDs))
	}
	return result, nil
}

// migrateFile moves one object to its new key and rewrites the record.
// The copy-before-delete order means a failure at any step never
// leaves the record pointing at a key that was removed by this call.
func (s *Service) migrateFile(ctx context.Context, file *metadata.File, oldKey, newKey string) error {
	if err := s.blobs.Copy(ctx, oldKey, newKey); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := s.blobs.Delete(ctx, oldKey); err != nil {
		return fmt.Errorf("delete old key: %w", err)
	}

	file.PhysicalKey = newKey
	if err := s.store.UpdateFile(ctx, file); err != nil {
		return fmt.Errorf("record update: %w", err)
	}
	return nil
}

// snapshotSubtreeFiles collects every file in the folder's subtree
// before the cascade writes anything. The traversal is an explicit
// work list rather than recursion, visiting folders depth-first in
// creation order, so the migration order is deterministic and the
// depth of the tree never threatens the stack.
func (s *Service) snapshotSubtreeFiles(ctx context.Context, root *metadata.Folder) ([]fileMigration, error) {
	type pending struct {
		id  metadata.FolderID
		rel []string
	}

	var migrations []fileMigration
	stack := []pending{{id: root.ID}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parentID := current.id
		files, err := s.store.FilesByParent(ctx, root.Org, &parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of folder %s: %w", current.id, err)
		}
		for _, file := range files {
			migrations = append(migrations, fileMigration{file: file, rel: current.rel})
		}

		subfolders, err := s.store.FoldersByParent(ctx, root.Org, &parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list subfolders of folder %s: %w", current.id, err)
		}
		// Push in reverse so the first-created subfolder is processed next.
		for i := len(subfolders) - 1; i >= 0; i-- {
			sub := subfolders[i]
			rel := make([]string, 0, len(current.rel)+1)
			rel = append(rel, current.rel...)
			rel = append(rel, sub.Name)
			stack = append(stack, pending{id: sub.ID, rel: rel})
		}
	}

	return migrations, nil
}

// sameParent compares two optional parent references.
func sameParent(a, b *metadata.FolderID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
