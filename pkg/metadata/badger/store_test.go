package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexushq/drivefs/pkg/metadata"
	"github.com/nexushq/drivefs/pkg/metadata/storetest"
)

func newTestStore(t *testing.T) metadata.Store {
	t.Helper()

	store, err := NewBadgerStore(context.Background(), BadgerStoreConfig{
		DBPath: t.TempDir(),
	})
	require.NoError(t, err)
	return store
}

func TestBadgerStore_Contract(t *testing.T) {
	suite := &storetest.Suite{NewStore: newTestStore}
	suite.Run(t)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerStore(ctx, BadgerStoreConfig{DBPath: dir})
	require.NoError(t, err)

	require.NoError(t, store.PutOrganization(ctx, &metadata.Organization{ID: "org-1", Name: "acme"}))
	folder := &metadata.Folder{ID: "folder-1", Name: "reports", Org: "org-1"}
	require.NoError(t, store.PutFolder(ctx, folder))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(ctx, BadgerStoreConfig{DBPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetFolder(ctx, "folder-1")
	require.NoError(t, err)
	require.Equal(t, "reports", got.Name)

	children, err := reopened.FoldersByParent(ctx, "org-1", nil)
	require.NoError(t, err)
	require.Len(t, children, 1)
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerStore(context.Background(), BadgerStoreConfig{})
	require.Error(t, err)
}
