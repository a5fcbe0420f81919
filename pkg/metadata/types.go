// Package metadata defines the domain model and store contract for
// drivefs structural metadata: organizations, folder trees, and file
// records. File bytes live in a separate blob store (pkg/blob); the
// two are linked only through each File's PhysicalKey.
package metadata

import "time"

// OrgID identifies an organization. Store-assigned at creation.
type OrgID string

// UserID identifies a user. Users are managed by the external auth
// subsystem; this package only stores membership references.
type UserID string

// FolderID identifies a folder. Caller-generated (UUID), never reused,
// and stable across renames and moves.
type FolderID string

// FileID identifies a file record. Store-assigned at creation.
type FileID string

// Organization scopes folders and files. Members are the users allowed
// to operate on the organization's tree.
type Organization struct {
	ID        OrgID     `json:"id"`
	Name      string    `json:"name"`
	Members   []UserID  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether the given user is a member.
func (o *Organization) HasMember(user UserID) bool {
	for _, m := range o.Members {
		if m == user {
			return true
		}
	}
	return false
}

// Folder is a node in an organization's tree.
//
// Invariants:
//   - the ParentID chain from any folder terminates at a root (no cycles)
//   - Org always equals the parent's Org
//   - Name is unique among sibling folders
//
// ID is immutable; Name and ParentID change through rename/move, which
// must cascade physical-key migration for every descendant file.
type Folder struct {
	ID        FolderID  `json:"folder_id"`
	Name      string    `json:"name"`
	Org       OrgID     `json:"organization_id"`
	ParentID  *FolderID `json:"parent_id"` // nil = root of the org tree
	CreatorID UserID    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// File is the metadata record for one stored object.
//
// PhysicalKey is the blob-store object key, derived from the *names*
// of the ancestor folders plus Basename. It must resolve to exactly
// one live object; a record whose key no longer resolves is a broken
// reference (surfaced by listings, repaired or deleted out of band).
type File struct {
	ID          FileID    `json:"id"`
	Name        string    `json:"name"`     // display name, no physical effect
	Basename    string    `json:"basename"` // immutable object basename, e.g. "1700000000000_report.pdf"
	Org         OrgID     `json:"organization_id"`
	ParentID    *FolderID `json:"parent_id"` // nil = root-level file
	PhysicalKey string    `json:"physical_key"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mimetype"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatorID   UserID    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}
