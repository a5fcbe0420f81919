package badger

import "github.com/nexushq/drivefs/pkg/metadata"

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize
// the metadata collections into logical namespaces. This design:
//   - Prevents key collisions between different record types
//   - Enables efficient range scans (e.g., all children of a folder)
//   - Makes the database structure self-documenting
//
// Key Namespace Prefixes:
//
// Record Type          Prefix   Key Format                          Value
// =========================================================================
// Organization         "o:"     o:<orgID>                          Organization (JSON)
// Org Name Index       "on:"    on:<name>                          orgID (bytes)
// Folder               "f:"     f:<folderID>                       Folder (JSON)
// File                 "fl:"    fl:<fileID>                        File (JSON)
// Child Folder Index   "cf:"    cf:<orgID>:<parentKey>:<folderID>  empty
// Child File Index     "cl:"    cl:<orgID>:<parentKey>:<fileID>    empty
//
// <parentKey> is the parent folder id, or "root" for top-level entries.
// Folder ids are UUIDs, so ":" never appears inside a key segment.
//
// Listing the children of a folder is a prefix scan over the child
// index followed by point lookups of the referenced records. The index
// carries no payload; the record is the single source of truth, which
// keeps rename/move updates to two index keys plus one record write.

const (
	prefixOrg     = "o:"
	prefixOrgName = "on:"
	prefixFolder  = "f:"
	prefixFile    = "fl:"
	prefixChildF  = "cf:"
	prefixChildL  = "cl:"

	// rootSegment stands in for a nil parent id in child index keys.
	rootSegment = "root"
)

func keyOrg(id metadata.OrgID) []byte {
	return []byte(prefixOrg + string(id))
}

func keyOrgName(name string) []byte {
	return []byte(prefixOrgName + name)
}

func keyFolder(id metadata.FolderID) []byte {
	return []byte(prefixFolder + string(id))
}

func keyFile(id metadata.FileID) []byte {
	return []byte(prefixFile + string(id))
}

// parentSegment renders an optional parent id for use in index keys.
func parentSegment(parent *metadata.FolderID) string {
	if parent == nil {
		return rootSegment
	}
	return string(*parent)
}

func keyChildFolder(org metadata.OrgID, parent *metadata.FolderID, id metadata.FolderID) []byte {
	return []byte(prefixChildF + string(org) + ":" + parentSegment(parent) + ":" + string(id))
}

// keyChildFolderPrefix is the range-scan prefix for a folder's subfolders.
func keyChildFolderPrefix(org metadata.OrgID, parent *metadata.FolderID) []byte {
	return []byte(prefixChildF + string(org) + ":" + parentSegment(parent) + ":")
}

func keyChildFile(org metadata.OrgID, parent *metadata.FolderID, id metadata.FileID) []byte {
	return []byte(prefixChildL + string(org) + ":" + parentSegment(parent) + ":" + string(id))
}

// keyChildFilePrefix is the range-scan prefix for a folder's files.
func keyChildFilePrefix(org metadata.OrgID, parent *metadata.FolderID) []byte {
	return []byte(prefixChildL + string(org) + ":" + parentSegment(parent) + ":")
}
