package tree

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexushq/drivefs/pkg/metadata"
)

// Physical Key Scheme:
//
// A file's blob key is the "/"-joined *names* of its ancestor folders,
// root first, followed by the file's basename:
//
//	reports/2024/1700000000000_summary.pdf
//
// Root-level files use the bare basename. The basename is assigned once
// at upload ("<unix-millis>_<original name>") and never changes, so two
// uploads of the same name to the same folder never collide. Folder ids
// never appear in keys; the price is that renaming or moving a folder
// changes the key of every descendant file, which the rename engine
// migrates.

// NewBasename builds the immutable object basename for an uploaded
// file from its display name and the upload instant.
func NewBasename(name string, at time.Time) string {
	return fmt.Sprintf("%d_%s", at.UnixMilli(), name)
}

// joinKey assembles a blob key from folder-name segments and a
// basename. An empty segment list means a root-level file.
func joinKey(segments []string, basename string) string {
	if len(segments) == 0 {
		return basename
	}
	return strings.Join(segments, "/") + "/" + basename
}

// pathSegments returns the folder names on the path from the root of
// the tree down to (and including) the given folder. A nil folder id
// addresses the root level and yields no segments.
//
// The walk follows ParentID edges and is bounded by a visited set, so
// a corrupted store with a parent cycle surfaces as an error instead
// of an infinite loop.
func pathSegments(ctx context.Context, store metadata.Store, folderID *metadata.FolderID) ([]string, error) {
	if folderID == nil {
		return nil, nil
	}

	var reversed []string
	visited := make(map[metadata.FolderID]struct{})

	current := folderID
	for current != nil {
		if _, seen := visited[*current]; seen {
			return nil, fmt.Errorf("parent cycle detected at folder %s", *current)
		}
		visited[*current] = struct{}{}

		folder, err := store.GetFolder(ctx, *current)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve folder path at %s: %w", *current, err)
		}
		reversed = append(reversed, folder.Name)
		current = folder.ParentID
	}

	segments := make([]string, len(reversed))
	for i, name := range reversed {
		segments[len(reversed)-1-i] = name
	}
	return segments, nil
}

// lockName returns the lock manager key for a mutation scoped to the
// given parent folder. Root-level mutations lock per organization.
func lockName(org metadata.OrgID, parent *metadata.FolderID) string {
	if parent == nil {
		return "root:" + string(org)
	}
	return "folder:" + string(*parent)
}
