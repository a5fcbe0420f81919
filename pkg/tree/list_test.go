package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmem "github.com/nexushq/drivefs/pkg/blob/memory"
	"github.com/nexushq/drivefs/pkg/metadata"
)

func TestListRoot_CreationOrder(t *testing.T) {
	f := newFixture(t)

	// Created in reverse alphabetical order on purpose.
	zeta := f.folder(t, nil, "zeta")
	alpha := f.folder(t, nil, "alpha")
	second := f.upload(t, nil, "2.txt", "b")
	first := f.upload(t, nil, "1.txt", "a")

	listing, err := f.svc.ListRoot(context.Background(), alice, testOrg)
	require.NoError(t, err)

	assert.Nil(t, listing.Folder)
	require.Len(t, listing.Subfolders, 2)
	assert.Equal(t, zeta.ID, listing.Subfolders[0].ID)
	assert.Equal(t, alpha.ID, listing.Subfolders[1].ID)

	require.Len(t, listing.Files, 2)
	assert.Equal(t, second.ID, listing.Files[0].ID)
	assert.Equal(t, first.ID, listing.Files[1].ID)
}

func TestListContents_OneLevel(t *testing.T) {
	f := newFixture(t)

	a := f.folder(t, nil, "A")
	b := f.folder(t, ptr(a.ID), "B")
	f.folder(t, ptr(b.ID), "nested") // grandchild, must not appear
	file := f.upload(t, ptr(a.ID), "doc.txt", "x")

	listing, err := f.svc.ListContents(context.Background(), alice, a.ID)
	require.NoError(t, err)

	require.NotNil(t, listing.Folder)
	assert.Equal(t, a.ID, listing.Folder.ID)
	require.Len(t, listing.Subfolders, 1)
	assert.Equal(t, b.ID, listing.Subfolders[0].ID)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, file.ID, listing.Files[0].ID)
	assert.False(t, listing.Files[0].Broken)
}

func TestListContents_FlagsBrokenReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	healthy := f.upload(t, ptr(a.ID), "ok.txt", "x")
	broken := f.upload(t, ptr(a.ID), "lost.txt", "y")

	// Simulate an out-of-band loss of the underlying object.
	require.NoError(t, f.blobs.Delete(ctx, broken.PhysicalKey))

	listing, err := f.svc.ListContents(ctx, alice, a.ID)
	require.NoError(t, err)

	byID := make(map[metadata.FileID]bool, len(listing.Files))
	for _, file := range listing.Files {
		byID[file.ID] = file.Broken
	}
	assert.False(t, byID[healthy.ID])
	assert.True(t, byID[broken.ID])
}

func TestListContents_ProbeErrorDegrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	file := f.upload(t, ptr(a.ID), "doc.txt", "x")

	f.blobs.FailWith(file.PhysicalKey, blobmem.OpExists, assert.AnError)

	listing, err := f.svc.ListContents(ctx, alice, a.ID)
	require.NoError(t, err, "a failing probe must not fail the listing")
	require.Len(t, listing.Files, 1)
	assert.False(t, listing.Files[0].Broken, "probe errors must not mark files broken")
}

func TestListContents_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListContents(context.Background(), alice, "missing")
	assert.True(t, metadata.IsNotFound(err))
}

func TestListRoot_NonMemberForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListRoot(context.Background(), bob, testOrg)
	assert.True(t, metadata.IsCode(err, metadata.ErrForbidden), "expected forbidden, got %v", err)
}

func TestListRoot_OrganizationIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.folder(t, nil, "mine")
	_, err := f.svc.CreateFolder(ctx, bob, otherOrg, nil, "theirs")
	require.NoError(t, err)

	listing, err := f.svc.ListRoot(ctx, alice, testOrg)
	require.NoError(t, err)
	require.Len(t, listing.Subfolders, 1)
	assert.Equal(t, "mine", listing.Subfolders[0].Name)
}
