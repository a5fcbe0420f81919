package tree

import (
	"context"

	"github.com/nexushq/drivefs/internal/logger"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// ListedFile is a file record decorated with the broken-reference
// probe: Broken is true when the record's physical key no longer
// resolves to a blob (for example after a partially failed cascade).
type ListedFile struct {
	*metadata.File
	Broken bool `json:"broken"`
}

// Listing is the contents of one level of the tree. Folder is nil for
// root-level listings. Both slices come back in creation order.
type Listing struct {
	Folder     *metadata.Folder   `json:"folder,omitempty"`
	Subfolders []*metadata.Folder `json:"subfolders"`
	Files      []ListedFile       `json:"files"`
}

// ListRoot returns the organization's root-level folders and files.
func (s *Service) ListRoot(ctx context.Context, actor metadata.UserID, org metadata.OrgID) (*Listing, error) {
	if err := s.gate.Require(ctx, actor, org); err != nil {
		return nil, err
	}
	return s.listLevel(ctx, org, nil, nil)
}

// ListContents returns the direct subfolders and files of a folder.
func (s *Service) ListContents(ctx context.Context, actor metadata.UserID, folderID metadata.FolderID) (*Listing, error) {
	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, actor, folder.Org); err != nil {
		return nil, err
	}
	return s.listLevel(ctx, folder.Org, folder, &folderID)
}

func (s *Service) listLevel(ctx context.Context, org metadata.OrgID, folder *metadata.Folder, parent *metadata.FolderID) (*Listing, error) {
	subfolders, err := s.store.FoldersByParent(ctx, org, parent)
	if err != nil {
		return nil, err
	}
	files, err := s.store.FilesByParent(ctx, org, parent)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Folder:     folder,
		Subfolders: subfolders,
		Files:      make([]ListedFile, 0, len(files)),
	}
	for _, file := range files {
		listing.Files = append(listing.Files, ListedFile{
			File:   file,
			Broken: s.probeBroken(ctx, file),
		})
	}
	return listing, nil
}

// probeBroken checks whether the file's physical key still resolves.
// A probe error is not a broken reference: the listing degrades to
// "not known broken" instead of failing the whole call.
func (s *Service) probeBroken(ctx context.Context, file *metadata.File) bool {
	ok, err := s.blobs.Exists(ctx, file.PhysicalKey)
	if err != nil {
		logger.Warn("broken-reference probe failed for file %s (key %s): %v",
			file.ID, file.PhysicalKey, err)
		return false
	}
	return !ok
}
