package tree

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmem "github.com/nexushq/drivefs/pkg/blob/memory"
	"github.com/nexushq/drivefs/pkg/metadata"
)

func TestRenameFolder_MigratesDescendantFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	b := f.folder(t, ptr(a.ID), "B")
	f1 := f.upload(t, ptr(b.ID), "f1.txt", "payload")

	require.Equal(t, "A/B/"+f1.Basename, f1.PhysicalKey)

	result, err := f.svc.RenameOrMove(ctx, alice, a.ID, Rename{NewName: "C"})
	require.NoError(t, err)

	assert.True(t, result.Renamed)
	assert.Equal(t, 1, result.MigratedCount)
	assert.Empty(t, result.FailedFileIDs)

	// Old key gone, new key present
	assert.Equal(t, []string{"C/B/" + f1.Basename}, f.blobs.Keys())

	// Record follows the new key, folder record carries the new name
	record, err := f.meta.GetFile(ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, "C/B/"+f1.Basename, record.PhysicalKey)

	renamed, err := f.meta.GetFolder(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", renamed.Name)
}

func TestRenameFolder_SameNameIsNoOp(t *testing.T) {
	f := newFixture(t)

	a := f.folder(t, nil, "A")
	f.upload(t, ptr(a.ID), "f.txt", "x")

	result, err := f.svc.RenameOrMove(context.Background(), alice, a.ID, Rename{NewName: "A"})
	require.NoError(t, err)

	assert.False(t, result.Renamed)
	assert.Equal(t, 0, result.MigratedCount)
}

func TestMoveFolder_UnderNewParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	x := f.folder(t, nil, "X")
	file := f.upload(t, ptr(x.ID), "doc.pdf", "pdf bytes")
	y := f.folder(t, nil, "Y")

	result, err := f.svc.RenameOrMove(ctx, alice, x.ID, Rename{Move: true, MoveTo: ptr(y.ID)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MigratedCount)

	assert.Equal(t, []string{"Y/X/" + file.Basename}, f.blobs.Keys())

	moved, err := f.meta.GetFolder(ctx, x.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, y.ID, *moved.ParentID)
}

func TestMoveFolder_ToRootLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.folder(t, nil, "parent")
	child := f.folder(t, ptr(parent.ID), "child")
	file := f.upload(t, ptr(child.ID), "n.txt", "x")

	result, err := f.svc.RenameOrMove(ctx, alice, child.ID, Rename{Move: true, MoveTo: nil})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MigratedCount)

	assert.Equal(t, []string{"child/" + file.Basename}, f.blobs.Keys())

	moved, err := f.meta.GetFolder(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestRenameFolder_PartialFailureContinues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	f1 := f.upload(t, ptr(a.ID), "first.txt", "1")
	f2 := f.upload(t, ptr(a.ID), "second.txt", "2")

	f.blobs.FailWith(f1.PhysicalKey, blobmem.OpCopy, errors.New("injected outage"))

	result, err := f.svc.RenameOrMove(ctx, alice, a.ID, Rename{NewName: "B"})
	require.NoError(t, err, "per-file failure must not fail the cascade")

	assert.Equal(t, 1, result.MigratedCount)
	assert.Equal(t, []metadata.FileID{f1.ID}, result.FailedFileIDs)

	// The failed file keeps its old key and record; the other migrated.
	assert.Equal(t, []string{
		"A/" + f1.Basename,
		"B/" + f2.Basename,
	}, f.blobs.Keys())

	stale, err := f.meta.GetFile(ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, "A/"+f1.Basename, stale.PhysicalKey)

	// Once the blob store recovers, renaming again (even to the same
	// name) reconciles the straggler.
	f.blobs.ClearFailures()

	retry, err := f.svc.RenameOrMove(ctx, alice, a.ID, Rename{NewName: "B"})
	require.NoError(t, err)
	assert.False(t, retry.Renamed)
	assert.Equal(t, 1, retry.MigratedCount)
	assert.Empty(t, retry.FailedFileIDs)

	assert.Equal(t, []string{
		"B/" + f1.Basename,
		"B/" + f2.Basename,
	}, f.blobs.Keys())
}

func TestMoveFolder_IntoOwnSubtreeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	b := f.folder(t, ptr(a.ID), "B")
	c := f.folder(t, ptr(b.ID), "C")

	for _, dest := range []metadata.FolderID{a.ID, b.ID, c.ID} {
		_, err := f.svc.RenameOrMove(ctx, alice, a.ID, Rename{Move: true, MoveTo: ptr(dest)})
		assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument),
			"expected invalid argument moving A under %s, got %v", dest, err)
	}
}

func TestRenameFolder_DestinationNameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	f.folder(t, nil, "B")

	_, err := f.svc.RenameOrMove(ctx, alice, a.ID, Rename{NewName: "B"})
	assert.True(t, metadata.IsConflict(err), "expected conflict, got %v", err)
}

func TestMoveFolder_DestinationNameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	b := f.folder(t, nil, "B")
	f.folder(t, ptr(b.ID), "A") // occupies the name at the destination

	_, err := f.svc.RenameOrMove(ctx, alice, a.ID, Rename{Move: true, MoveTo: ptr(b.ID)})
	assert.True(t, metadata.IsConflict(err), "expected conflict, got %v", err)
}

func TestRenameFolder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RenameOrMove(context.Background(), alice, "missing", Rename{NewName: "x"})
	assert.True(t, metadata.IsNotFound(err))
}

func TestMoveFolder_CrossOrgDestination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.folder(t, nil, "mine")
	foreign, err := f.svc.CreateFolder(ctx, bob, otherOrg, nil, "theirs")
	require.NoError(t, err)

	_, err = f.svc.RenameOrMove(ctx, alice, mine.ID, Rename{Move: true, MoveTo: ptr(foreign.ID)})
	assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument), "expected invalid argument, got %v", err)
}

// TestRandomizedMoves_TreeStaysAcyclic hammers the move path with a
// seeded random workload and verifies the structural invariants
// afterwards: every parent chain terminates at a root and every folder
// shares its parent's organization.
func TestRandomizedMoves_TreeStaysAcyclic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var folders []*metadata.Folder
	for i := 0; i < 25; i++ {
		var parent *metadata.FolderID
		if len(folders) > 0 && rng.Intn(2) == 0 {
			parent = ptr(folders[rng.Intn(len(folders))].ID)
		}
		folder, err := f.svc.CreateFolder(ctx, alice, testOrg, parent, randomName(rng, i))
		require.NoError(t, err)
		folders = append(folders, folder)
	}

	// Random moves; rejected ones (cycles, conflicts) are expected.
	for i := 0; i < 100; i++ {
		subject := folders[rng.Intn(len(folders))]
		change := Rename{Move: true}
		if rng.Intn(4) > 0 {
			change.MoveTo = ptr(folders[rng.Intn(len(folders))].ID)
		}
		if _, err := f.svc.RenameOrMove(ctx, alice, subject.ID, change); err != nil {
			assert.True(t,
				metadata.IsCode(err, metadata.ErrInvalidArgument) || metadata.IsConflict(err),
				"unexpected error class: %v", err)
		}
	}

	for _, folder := range folders {
		segments, err := pathSegments(ctx, f.meta, ptr(folder.ID))
		require.NoError(t, err, "parent chain of %s must terminate", folder.ID)
		assert.NotEmpty(t, segments)

		current, err := f.meta.GetFolder(ctx, folder.ID)
		require.NoError(t, err)
		if current.ParentID != nil {
			parent, err := f.meta.GetFolder(ctx, *current.ParentID)
			require.NoError(t, err)
			assert.Equal(t, parent.Org, current.Org)
		}
	}
}

func randomName(rng *rand.Rand, i int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	return string(letters[rng.Intn(len(letters))]) + string(rune('0'+i%10)) + string(rune('a'+i/10))
}
