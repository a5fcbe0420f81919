package metadata

import "context"

// Store is the metadata persistence contract.
//
// Implementations must be safe for concurrent use. Higher-level
// serialization (per-subtree locks during cascades) is the caller's
// responsibility; the store only guarantees that each individual call
// is atomic.
//
// Retry semantics: Update* and Delete* calls are idempotent and safe
// to retry on transient failure. Put* calls insert and must not be
// blindly retried - a retry after an ambiguous failure must first
// probe with the corresponding Get.
//
// Listing calls (FoldersByParent, FilesByParent) return entries
// ordered by CreatedAt ascending, with ID as tie-breaker, so cascade
// traversal order is deterministic.
type Store interface {
	// PutOrganization inserts a new organization.
	// Fails with ErrConflict if the id or name is already taken.
	PutOrganization(ctx context.Context, org *Organization) error

	// GetOrganization returns the organization or ErrNotFound.
	GetOrganization(ctx context.Context, id OrgID) (*Organization, error)

	// UpdateOrganization replaces an existing organization record
	// (used for membership changes). Fails with ErrNotFound if absent.
	UpdateOrganization(ctx context.Context, org *Organization) error

	// PutFolder inserts a new folder.
	// Fails with ErrConflict if the folder id already exists.
	PutFolder(ctx context.Context, folder *Folder) error

	// GetFolder returns the folder or ErrNotFound.
	GetFolder(ctx context.Context, id FolderID) (*Folder, error)

	// UpdateFolder replaces an existing folder record.
	// Fails with ErrNotFound if absent.
	UpdateFolder(ctx context.Context, folder *Folder) error

	// DeleteFolder removes a folder record. Idempotent: deleting an
	// absent folder returns nil.
	DeleteFolder(ctx context.Context, id FolderID) error

	// FoldersByParent returns the direct subfolders of parent within
	// org (parent == nil means the org's root level), creation order.
	FoldersByParent(ctx context.Context, org OrgID, parent *FolderID) ([]*Folder, error)

	// FolderByName returns the subfolder of parent with the given
	// name, or ErrNotFound. Used for the sibling-uniqueness probe.
	FolderByName(ctx context.Context, org OrgID, parent *FolderID, name string) (*Folder, error)

	// PutFile inserts a new file record.
	// Fails with ErrConflict if the file id already exists.
	PutFile(ctx context.Context, file *File) error

	// GetFile returns the file record or ErrNotFound.
	GetFile(ctx context.Context, id FileID) (*File, error)

	// UpdateFile replaces an existing file record.
	// Fails with ErrNotFound if absent.
	UpdateFile(ctx context.Context, file *File) error

	// DeleteFile removes a file record. Idempotent.
	DeleteFile(ctx context.Context, id FileID) error

	// FilesByParent returns the files directly under parent within org
	// (parent == nil means root-level files), creation order.
	FilesByParent(ctx context.Context, org OrgID, parent *FolderID) ([]*File, error)

	// Close releases store resources. The store must not be used
	// after Close returns.
	Close() error
}
