// Package tree implements the drivefs core: organization-scoped folder
// trees whose structural metadata lives in a metadata.Store while file
// bytes live in a blob.Store keyed by folder-name paths.
//
// The hard part of this package is keeping the logical tree (stable
// folder ids) consistent with the physical key space (keys derived
// from mutable folder names) without a cross-store transaction. Folder
// renames and moves cascade a key migration over every descendant
// file; subtree deletes tear down both stores leaf-first. Both
// cascades tolerate partial failure and report it in structured
// results instead of failing the whole call - consistency is
// eventual-with-repair, with listings probing for broken references.
package tree

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexushq/drivefs/pkg/authz"
	"github.com/nexushq/drivefs/pkg/blob"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// Service exposes the tree operations. All entry points authorize the
// acting user through the gate before touching either store.
//
// Thread Safety: safe for concurrent use. Each organization carries a
// read/write lock: cascades (rename/move, subtree delete) hold the
// write side, so the folder names they turn into physical keys cannot
// shift under them, and every level-scoped mutation (create folder,
// upload, file delete) holds the read side plus a per-level lock.
// Level mutations in the same organization run in parallel unless they
// target the same parent; cascades exclude everything else in their
// organization. Other organizations are never blocked.
type Service struct {
	store    metadata.Store
	blobs    blob.Store
	gate     *authz.Gate
	locks    *lockManager
	orgLocks *rwLockManager

	// now and newID are injectable for deterministic tests.
	now   func() time.Time
	newID func() string
}

// NewService creates a tree service over the given stores and gate.
func NewService(store metadata.Store, blobs blob.Store, gate *authz.Gate) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		gate:     gate,
		locks:    newLockManager(),
		orgLocks: newRWLockManager(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}
