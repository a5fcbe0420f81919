package tree

import (
	"context"
	"fmt"

	"github.com/nexushq/drivefs/pkg/metadata"
)

// validateName rejects names that cannot serve as a physical key
// segment. Slashes would splice extra path levels into blob keys.
func validateName(name string) error {
	switch {
	case name == "":
		return metadata.NewError(metadata.ErrInvalidArgument, "name must not be empty")
	case name == "." || name == "..":
		return metadata.NewError(metadata.ErrInvalidArgument, fmt.Sprintf("name %q is reserved", name))
	}
	for _, r := range name {
		if r == '/' {
			return metadata.NewError(metadata.ErrInvalidArgument, "name must not contain '/'")
		}
	}
	return nil
}

// checkSiblingFolderName enforces sibling folder name uniqueness.
// exclude skips the folder being renamed so a case-only or no-op
// rename does not conflict with itself.
func (s *Service) checkSiblingFolderName(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID, name string, exclude metadata.FolderID) error {
	existing, err := s.store.FolderByName(ctx, org, parent, name)
	if err != nil {
		if metadata.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to probe sibling names: %w", err)
	}
	if existing.ID == exclude {
		return nil
	}
	return metadata.NewError(metadata.ErrConflict,
		fmt.Sprintf("a folder named %q already exists at this level", name))
}

// CreateFolder creates a folder under parentID (nil for the root level)
// in the given organization.
//
// Errors:
//   - ErrForbidden if actor is not a member of org
//   - ErrNotFound if parentID does not resolve
//   - ErrInvalidArgument if the name is unusable or the parent belongs
//     to a different organization
//   - ErrConflict if a sibling folder already carries the name
func (s *Service) CreateFolder(ctx context.Context, actor metadata.UserID, org metadata.OrgID, parentID *metadata.FolderID, name string) (*metadata.Folder, error) {
	if err := s.gate.Require(ctx, actor, org); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.store.GetFolder(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.Org != org {
			return nil, metadata.NewError(metadata.ErrInvalidArgument,
				fmt.Sprintf("parent folder %s belongs to another organization", *parentID))
		}
	}

	release := s.orgLocks.rlock(string(org))
	defer release()
	unlock := s.locks.lock(lockName(org, parentID))
	defer unlock()

	if err := s.checkSiblingFolderName(ctx, org, parentID, name, ""); err != nil {
		return nil, err
	}

	folder := &metadata.Folder{
		ID:        metadata.FolderID(s.newID()),
		Name:      name,
		Org:       org,
		ParentID:  parentID,
		CreatorID: actor,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return folder, nil
}

// Rename describes a rename and/or move of a folder. A zero NewName
// keeps the current name. Move selects whether the parent changes;
// when it does, MoveTo is the destination (nil moves to the root
// level). Carrying the flag separately keeps "move to root" distinct
// from "do not move".
type Rename struct {
	NewName string
	Move    bool
	MoveTo  *metadata.FolderID
}

// RenameOrMove renames and/or moves the folder, then migrates the blob
// key of every descendant file whose key changed. The folder id stays
// stable; only names and parent edges change.
//
// Per-file migration failures do not abort the cascade: the failing
// file keeps its old key and record, its id is reported in the result,
// and the remaining files continue. The folder record itself is
// persisted after the migrations so a retried call recomputes the
// still-pending keys from unchanged metadata.
//
// Errors:
//   - ErrNotFound if the folder does not resolve
//   - ErrForbidden if actor is not a member of the folder's org
//   - ErrInvalidArgument for bad names, cross-organization destinations,
//     or a destination inside the folder's own subtree
//   - ErrConflict if the destination level already has the name
func (s *Service) RenameOrMove(ctx context.Context, actor metadata.UserID, folderID metadata.FolderID, change Rename) (*RenameResult, error) {
	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, actor, folder.Org); err != nil {
		return nil, err
	}

	// The write lock excludes every other mutation in the organization,
	// so the destination, cycle, and sibling-name checks below cannot
	// be invalidated before the cascade commits, and no concurrent
	// ancestor rename can shift the paths the cascade computes.
	release := s.orgLocks.lock(string(folder.Org))
	defer release()

	// Re-read under the lock: a cascade that ran while we waited may
	// have renamed, moved, or deleted the folder.
	folder, err = s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	newName := folder.Name
	if change.NewName != "" {
		if err := validateName(change.NewName); err != nil {
			return nil, err
		}
		newName = change.NewName
	}

	newParent := folder.ParentID
	if change.Move {
		newParent = change.MoveTo
		if err := s.checkDestination(ctx, folder, newParent); err != nil {
			return nil, err
		}
	}

	if err := s.checkSiblingFolderName(ctx, folder.Org, newParent, newName, folderID); err != nil {
		return nil, err
	}

	return s.cascadeRename(ctx, folder, newName, newParent)
}

// checkDestination validates a move target: it must exist, belong to
// the same organization, and not sit inside the moved folder's own
// subtree (which would detach the subtree into a cycle). The cycle
// check walks the destination's parent chain, so it costs one lookup
// per level of depth rather than a subtree scan.
func (s *Service) checkDestination(ctx context.Context, folder *metadata.Folder, dest *metadata.FolderID) error {
	if dest == nil {
		return nil
	}
	if *dest == folder.ID {
		return metadata.NewError(metadata.ErrInvalidArgument, "cannot move a folder into itself")
	}

	visited := make(map[metadata.FolderID]struct{})
	current := dest
	for current != nil {
		if *current == folder.ID {
			return metadata.NewError(metadata.ErrInvalidArgument,
				"cannot move a folder into its own subtree")
		}
		if _, seen := visited[*current]; seen {
			return fmt.Errorf("parent cycle detected at folder %s", *current)
		}
		visited[*current] = struct{}{}

		node, err := s.store.GetFolder(ctx, *current)
		if err != nil {
			if metadata.IsNotFound(err) && *current == *dest {
				return metadata.NewError(metadata.ErrNotFound,
					fmt.Sprintf("destination folder %s not found", *dest))
			}
			return err
		}
		if node.Org != folder.Org {
			return metadata.NewError(metadata.ErrInvalidArgument,
				fmt.Sprintf("destination folder %s belongs to another organization", *dest))
		}
		current = node.ParentID
	}
	return nil
}
