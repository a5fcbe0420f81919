// Package memory implements metadata.Store using in-memory maps.
//
// This implementation is suitable for:
//   - Testing and development environments
//   - Ephemeral deployments where persistence is not required
//
// Thread Safety:
// All operations are protected by a single read-write mutex, making
// the store safe for concurrent access from multiple goroutines. This
// coarse-grained locking is simple and correct; the badger store
// offers the same contract with real persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nexushq/drivefs/pkg/metadata"
)

// MemoryStore implements metadata.Store backed by in-memory maps.
type MemoryStore struct {
	mu sync.RWMutex

	orgs    map[metadata.OrgID]*metadata.Organization
	folders map[metadata.FolderID]*metadata.Folder
	files   map[metadata.FileID]*metadata.File

	closed bool
}

// NewMemoryStore creates an empty in-memory metadata store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:    make(map[metadata.OrgID]*metadata.Organization),
		folders: make(map[metadata.FolderID]*metadata.Folder),
		files:   make(map[metadata.FileID]*metadata.File),
	}
}

// checkUsable validates the context and the store lifecycle state.
// Callers must hold at least a read lock.
func (s *MemoryStore) checkUsable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return metadata.NewError(metadata.ErrUnavailable, "store is closed")
	}
	return nil
}

// ============================================================================
// Organizations
// ============================================================================

func (s *MemoryStore) PutOrganization(ctx context.Context, org *metadata.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	if org.ID == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "organization id is required")
	}
	if _, exists := s.orgs[org.ID]; exists {
		return metadata.NewError(metadata.ErrConflict,
			fmt.Sprintf("organization %s already exists", org.ID))
	}
	for _, existing := range s.orgs {
		if existing.Name == org.Name {
			return metadata.NewError(metadata.ErrConflict,
				fmt.Sprintf("organization name %q already taken", org.Name))
		}
	}

	s.orgs[org.ID] = copyOrg(org)
	return nil
}

func (s *MemoryStore) GetOrganization(ctx context.Context, id metadata.OrgID) (*metadata.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(ctx); err != nil {
		return nil, err
	}
	org, ok := s.orgs[id]
	if !ok {
		return nil, metadata.NewError(metadata.ErrNotFound,
			fmt.Sprintf("organization %s not found", id))
	}
	return copyOrg(org), nil
}

func (s *MemoryStore) UpdateOrganization(ctx context.Context, org *metadata.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	if _, ok := s.orgs[org.ID]; !ok {
		return metadata.NewError(metadata.ErrNotFound,
			fmt.Sprintf("organization %s not found", org.ID))
	}

	s.orgs[org.ID] = copyOrg(org)
	return nil
}

// ============================================================================
// Folders
// ============================================================================

func (s *MemoryStore) PutFolder(ctx context.Context, folder *metadata.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	if folder.ID == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "folder id is required")
	}
	if _, exists := s.folders[folder.ID]; exists {
		return metadata.NewError(metadata.ErrConflict,
			fmt.Sprintf("folder %s already exists", folder.ID))
	}

	s.folders[folder.ID] = copyFolder(folder)
	return nil
}

func (s *MemoryStore) GetFolder(ctx context.Context, id metadata.FolderID) (*metadata.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(ctx); err != nil {
		return nil, err
	}
	folder, ok := s.folders[id]
	if !ok {
		return nil, metadata.NewError(metadata.ErrNotFound,
			fmt.Sprintf("folder %s not found", id))
	}
	return copyFolder(folder), nil
}

func (s *MemoryStore) UpdateFolder(ctx context.Context, folder *metadata.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	if _, ok := s.folders[folder.ID]; !ok {
		return metadata.NewError(metadata.ErrNotFound,
			fmt.Sprintf("folder %s not found", folder.ID))
	}

	s.folders[folder.ID] = copyFolder(folder)
	return nil
}

func (s *MemoryStore) DeleteFolder(ctx context.Context, id metadata.FolderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	delete(s.folders, id)
	return nil
}

func (s *MemoryStore) FoldersByParent(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID) ([]*metadata.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(ctx); err != nil {
		return nil, err
	}

	var result []*metadata.Folder
	for _, folder := range s.folders {
		if folder.Org != org || !sameParent(folder.ParentID, parent) {
			continue
		}
		result = append(result, copyFolder(folder))
	}

	sortFolders(result)
	return result, nil
}

func (s *MemoryStore) FolderByName(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID, name string) (*metadata.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(ctx); err != nil {
		return nil, err
	}

	for _, folder := range s.folders {
		if folder.Org == org && sameParent(folder.ParentID, parent) && folder.Name == name {
			return copyFolder(folder), nil
		}
	}
	return nil, metadata.NewError(metadata.ErrNotFound,
		fmt.Sprintf("folder %q not found under parent", name))
}

// ============================================================================
// Files
// ============================================================================

func (s *MemoryStore) PutFile(ctx context.Context, file *metadata.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	if file.ID == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "file id is required")
	}
	if _, exists := s.files[file.ID]; exists {
		return metadata.NewError(metadata.ErrConflict,
			fmt.Sprintf("file %s already exists", file.ID))
	}

	s.files[file.ID] = copyFile(file)
	return nil
}

func (s *MemoryStore) GetFile(ctx context.Context, id metadata.FileID) (*metadata.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(ctx); err != nil {
		return nil, err
	}
	file, ok := s.files[id]
	if !ok {
		return nil, metadata.NewError(metadata.ErrNotFound,
			fmt.Sprintf("file %s not found", id))
	}
	return copyFile(file), nil
}

func (s *MemoryStore) UpdateFile(ctx context.Context, file *metadata.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	if _, ok := s.files[file.ID]; !ok {
		return metadata.NewError(metadata.ErrNotFound,
			fmt.Sprintf("file %s not found", file.ID))
	}

	s.files[file.ID] = copyFile(file)
	return nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, id metadata.FileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(ctx); err != nil {
		return err
	}
	delete(s.files, id)
	return nil
}

func (s *MemoryStore) FilesByParent(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID) ([]*metadata.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(ctx); err != nil {
		return nil, err
	}

	var result []*metadata.File
	for _, file := range s.files {
		if file.Org != org || !sameParent(file.ParentID, parent) {
			continue
		}
		result = append(result, copyFile(file))
	}

	sortFiles(result)
	return result, nil
}

// Close marks the store closed. Subsequent calls fail with ErrUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// sameParent compares two optional parent ids.
func sameParent(a, b *metadata.FolderID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sortFolders orders by CreatedAt ascending, folder id as tie-breaker,
// so cascade traversal and listings are deterministic.
func sortFolders(folders []*metadata.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		if !folders[i].CreatedAt.Equal(folders[j].CreatedAt) {
			return folders[i].CreatedAt.Before(folders[j].CreatedAt)
		}
		return folders[i].ID < folders[j].ID
	})
}

func sortFiles(files []*metadata.File) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.Before(files[j].CreatedAt)
		}
		return files[i].ID < files[j].ID
	})
}

// Defensive copies keep callers from mutating store state through
// returned pointers.

func copyOrg(org *metadata.Organization) *metadata.Organization {
	dup := *org
	dup.Members = append([]metadata.UserID(nil), org.Members...)
	return &dup
}

func copyFolder(folder *metadata.Folder) *metadata.Folder {
	dup := *folder
	if folder.ParentID != nil {
		parent := *folder.ParentID
		dup.ParentID = &parent
	}
	return &dup
}

func copyFile(file *metadata.File) *metadata.File {
	dup := *file
	if file.ParentID != nil {
		parent := *file.ParentID
		dup.ParentID = &parent
	}
	dup.Tags = append([]string(nil), file.Tags...)
	return &dup
}
