// Package storetest provides a contract test suite for metadata.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across backends (memory, badger).
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexushq/drivefs/pkg/metadata"
)

// Suite runs the metadata.Store contract tests.
type Suite struct {
	// NewStore creates a fresh Store for each test, ensuring isolation.
	NewStore func(t *testing.T) metadata.Store
}

// Run executes all tests in the suite.
func (s *Suite) Run(t *testing.T) {
	t.Run("Organizations", s.testOrganizations)
	t.Run("Folders", s.testFolders)
	t.Run("FolderIndexes", s.testFolderIndexes)
	t.Run("Files", s.testFiles)
	t.Run("FileIndexes", s.testFileIndexes)
}

func (s *Suite) testOrganizations(t *testing.T) {
	ctx := context.Background()
	store := s.NewStore(t)
	defer store.Close()

	org := &metadata.Organization{
		ID:        "org-1",
		Name:      "acme",
		Members:   []metadata.UserID{"alice"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.PutOrganization(ctx, org))

	// Duplicate id rejected
	err := store.PutOrganization(ctx, org)
	assert.True(t, metadata.IsConflict(err), "expected conflict, got %v", err)

	// Duplicate name rejected
	err = store.PutOrganization(ctx, &metadata.Organization{ID: "org-2", Name: "acme"})
	assert.True(t, metadata.IsConflict(err), "expected name conflict, got %v", err)

	got, err := store.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
	assert.True(t, got.HasMember("alice"))
	assert.False(t, got.HasMember("bob"))

	// Membership update round-trips
	got.Members = append(got.Members, "bob")
	require.NoError(t, store.UpdateOrganization(ctx, got))
	got, err = store.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.True(t, got.HasMember("bob"))

	_, err = store.GetOrganization(ctx, "missing")
	assert.True(t, metadata.IsNotFound(err), "expected not found, got %v", err)

	err = store.UpdateOrganization(ctx, &metadata.Organization{ID: "missing"})
	assert.True(t, metadata.IsNotFound(err))
}

func (s *Suite) testFolders(t *testing.T) {
	ctx := context.Background()
	store := s.NewStore(t)
	defer store.Close()

	require.NoError(t, store.PutOrganization(ctx, &metadata.Organization{ID: "org-1", Name: "acme"}))

	folder := &metadata.Folder{
		ID:        metadata.FolderID(uuid.NewString()),
		Name:      "reports",
		Org:       "org-1",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.PutFolder(ctx, folder))

	err := store.PutFolder(ctx, folder)
	assert.True(t, metadata.IsConflict(err))

	got, err := store.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports", got.Name)
	assert.Nil(t, got.ParentID)

	// Rename persists
	got.Name = "reports-2024"
	require.NoError(t, store.UpdateFolder(ctx, got))
	got, err = store.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports-2024", got.Name)

	// Delete is idempotent
	require.NoError(t, store.DeleteFolder(ctx, folder.ID))
	require.NoError(t, store.DeleteFolder(ctx, folder.ID))

	_, err = store.GetFolder(ctx, folder.ID)
	assert.True(t, metadata.IsNotFound(err))
}

func (s *Suite) testFolderIndexes(t *testing.T) {
	ctx := context.Background()
	store := s.NewStore(t)
	defer store.Close()

	require.NoError(t, store.PutOrganization(ctx, &metadata.Organization{ID: "org-1", Name: "acme"}))
	require.NoError(t, store.PutOrganization(ctx, &metadata.Organization{ID: "org-2", Name: "globex"}))

	base := time.Now()
	parent := &metadata.Folder{
		ID: metadata.FolderID(uuid.NewString()), Name: "root-a", Org: "org-1", CreatedAt: base,
	}
	require.NoError(t, store.PutFolder(ctx, parent))

	// Children inserted out of creation order
	childB := &metadata.Folder{
		ID: metadata.FolderID(uuid.NewString()), Name: "b", Org: "org-1",
		ParentID: &parent.ID, CreatedAt: base.Add(2 * time.Second),
	}
	childA := &metadata.Folder{
		ID: metadata.FolderID(uuid.NewString()), Name: "a", Org: "org-1",
		ParentID: &parent.ID, CreatedAt: base.Add(1 * time.Second),
	}
	require.NoError(t, store.PutFolder(ctx, childB))
	require.NoError(t, store.PutFolder(ctx, childA))

	// Another org's root folder must not leak into org-1 listings
	require.NoError(t, store.PutFolder(ctx, &metadata.Folder{
		ID: metadata.FolderID(uuid.NewString()), Name: "other", Org: "org-2", CreatedAt: base,
	}))

	roots, err := store.FoldersByParent(ctx, "org-1", nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, parent.ID, roots[0].ID)

	children, err := store.FoldersByParent(ctx, "org-1", &parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].Name, "children must be in creation order")
	assert.Equal(t, "b", children[1].Name)

	// Name probe
	found, err := store.FolderByName(ctx, "org-1", &parent.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, childB.ID, found.ID)

	_, err = store.FolderByName(ctx, "org-1", &parent.ID, "zzz")
	assert.True(t, metadata.IsNotFound(err))

	// Move childA to root: index entries must follow
	childA.ParentID = nil
	require.NoError(t, store.UpdateFolder(ctx, childA))

	children, err = store.FoldersByParent(ctx, "org-1", &parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, childB.ID, children[0].ID)

	roots, err = store.FoldersByParent(ctx, "org-1", nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func (s *Suite) testFiles(t *testing.T) {
	ctx := context.Background()
	store := s.NewStore(t)
	defer store.Close()

	require.NoError(t, store.PutOrganization(ctx, &metadata.Organization{ID: "org-1", Name: "acme"}))

	file := &metadata.File{
		ID:          metadata.FileID(uuid.NewString()),
		Name:        "report.pdf",
		Basename:    "1700000000000_report.pdf",
		Org:         "org-1",
		PhysicalKey: "1700000000000_report.pdf",
		Size:        42,
		MimeType:    "application/pdf",
		Tags:        []string{"q3", "finance"},
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.PutFile(ctx, file))

	err := store.PutFile(ctx, file)
	assert.True(t, metadata.IsConflict(err))

	got, err := store.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.PhysicalKey, got.PhysicalKey)
	assert.Equal(t, []string{"q3", "finance"}, got.Tags)

	got.PhysicalKey = "renamed/1700000000000_report.pdf"
	require.NoError(t, store.UpdateFile(ctx, got))
	got, err = store.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed/1700000000000_report.pdf", got.PhysicalKey)

	require.NoError(t, store.DeleteFile(ctx, file.ID))
	require.NoError(t, store.DeleteFile(ctx, file.ID))

	_, err = store.GetFile(ctx, file.ID)
	assert.True(t, metadata.IsNotFound(err))
}

func (s *Suite) testFileIndexes(t *testing.T) {
	ctx := context.Background()
	store := s.NewStore(t)
	defer store.Close()

	require.NoError(t, store.PutOrganization(ctx, &metadata.Organization{ID: "org-1", Name: "acme"}))

	base := time.Now()
	folder := &metadata.Folder{
		ID: metadata.FolderID(uuid.NewString()), Name: "docs", Org: "org-1", CreatedAt: base,
	}
	require.NoError(t, store.PutFolder(ctx, folder))

	second := &metadata.File{
		ID: metadata.FileID(uuid.NewString()), Name: "two", Org: "org-1",
		ParentID: &folder.ID, CreatedAt: base.Add(2 * time.Second),
	}
	first := &metadata.File{
		ID: metadata.FileID(uuid.NewString()), Name: "one", Org: "org-1",
		ParentID: &folder.ID, CreatedAt: base.Add(1 * time.Second),
	}
	rootFile := &metadata.File{
		ID: metadata.FileID(uuid.NewString()), Name: "loose", Org: "org-1",
		CreatedAt: base,
	}
	require.NoError(t, store.PutFile(ctx, second))
	require.NoError(t, store.PutFile(ctx, first))
	require.NoError(t, store.PutFile(ctx, rootFile))

	files, err := store.FilesByParent(ctx, "org-1", &folder.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "one", files[0].Name, "files must be in creation order")
	assert.Equal(t, "two", files[1].Name)

	rootFiles, err := store.FilesByParent(ctx, "org-1", nil)
	require.NoError(t, err)
	require.Len(t, rootFiles, 1)
	assert.Equal(t, "loose", rootFiles[0].Name)
}
