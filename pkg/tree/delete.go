package tree

import (
	"context"
	"fmt"

	"github.com/nexushq/drivefs/internal/logger"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// DeleteResult reports the outcome of a subtree deletion.
//
// Like the rename cascade, per-file failures do not abort the run.
// A failed file keeps both its blob and its record, and every folder
// on its ancestor path inside the subtree is kept too, so the retained
// records stay reachable through listings and the deletion can simply
// be retried.
type DeleteResult struct {
	// DeletedFolders counts folder records removed.
	DeletedFolders int `json:"deleted_folders"`

	// DeletedFiles counts files whose blob and record were both removed.
	DeletedFiles int `json:"deleted_files"`

	// FailedFileIDs lists files that could not be fully removed.
	FailedFileIDs []metadata.FileID `json:"failed_file_ids"`

	// RetainedFolderIDs lists folders kept because something beneath
	// them survived. Includes the requested folder itself when any
	// descendant failed.
	RetainedFolderIDs []metadata.FolderID `json:"retained_folder_ids"`
}

// DeleteSubtree removes the folder and everything beneath it: every
// descendant file's blob and record, then the folder records bottom-up.
// A folder record is only deleted once everything under it is provably
// gone, so no file or folder record is ever orphaned by losing its
// parent.
//
// Deleting an id that does not resolve (including a second call after
// a successful delete) returns ErrNotFound.
func (s *Service) DeleteSubtree(ctx context.Context, actor metadata.UserID, folderID metadata.FolderID) (*DeleteResult, error) {
	root, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, actor, root.Org); err != nil {
		return nil, err
	}

	// Cascades exclude all other mutations in the organization so the
	// subtree snapshot cannot race a move into or out of it.
	release := s.orgLocks.lock(string(root.Org))
	defer release()

	// Re-read under the lock in case a concurrent delete got here first.
	root, err = s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	// Snapshot the subtree parent-before-child with an explicit work
	// list, then walk it in reverse for bottom-up deletion.
	type node struct {
		folder *metadata.Folder
		parent metadata.FolderID // zero for the subtree root
	}

	var order []node
	stack := []node{{folder: root}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, current)

		parentID := current.folder.ID
		subfolders, err := s.store.FoldersByParent(ctx, root.Org, &parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list subfolders of folder %s: %w", parentID, err)
		}
		for _, sub := range subfolders {
			stack = append(stack, node{folder: sub, parent: parentID})
		}
	}

	result := &DeleteResult{}
	retained := make(map[metadata.FolderID]bool)

	for i := len(order) - 1; i >= 0; i-- {
		current := order[i]
		folderRetained := retained[current.folder.ID]

		parentID := current.folder.ID
		files, err := s.store.FilesByParent(ctx, root.Org, &parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of folder %s: %w", parentID, err)
		}
		for _, file := range files {
			if err := s.removeFile(ctx, file); err != nil {
				logger.Warn("failed to delete file %s (key %s): %v", file.ID, file.PhysicalKey, err)
				result.FailedFileIDs = append(result.FailedFileIDs, file.ID)
				folderRetained = true
				continue
			}
			result.DeletedFiles++
		}

		if folderRetained {
			result.RetainedFolderIDs = append(result.RetainedFolderIDs, current.folder.ID)
			if current.parent != "" {
				retained[current.parent] = true
			}
			continue
		}

		if err := s.store.DeleteFolder(ctx, current.folder.ID); err != nil {
			logger.Warn("failed to delete folder record %s: %v", current.folder.ID, err)
			result.RetainedFolderIDs = append(result.RetainedFolderIDs, current.folder.ID)
			if current.parent != "" {
				retained[current.parent] = true
			}
			continue
		}
		result.DeletedFolders++
	}

	logger.Info("deleted subtree at folder %s: %d folders, %d files removed, %d files failed",
		folderID, result.DeletedFolders, result.DeletedFiles, len(result.FailedFileIDs))
	return result, nil
}

// removeFile deletes the blob first, then the record. If the blob
// delete fails the record survives, so the file stays visible instead
// of silently leaking an unreferenced object.
func (s *Service) removeFile(ctx context.Context, file *metadata.File) error {
	if err := s.blobs.Delete(ctx, file.PhysicalKey); err != nil {
		return fmt.Errorf("blob delete: %w", err)
	}
	if err := s.store.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("record delete: %w", err)
	}
	return nil
}
