package tree

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmem "github.com/nexushq/drivefs/pkg/blob/memory"
	"github.com/nexushq/drivefs/pkg/metadata"
)

func TestUploadFile_RootLevel(t *testing.T) {
	f := newFixture(t)

	file := f.upload(t, nil, "notes.txt", "hello")

	// Root-level files use the bare basename as their key.
	assert.Equal(t, file.Basename, file.PhysicalKey)
	assert.NotContains(t, file.PhysicalKey, "/")
	assert.True(t, strings.HasSuffix(file.Basename, "_notes.txt"))
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, "text/plain", file.MimeType)
	assert.Equal(t, alice, file.CreatorID)
	assert.Nil(t, file.ParentID)

	ok, err := f.blobs.Exists(context.Background(), file.PhysicalKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadFile_NestedKeyUsesFolderNames(t *testing.T) {
	f := newFixture(t)

	reports := f.folder(t, nil, "reports")
	q1 := f.folder(t, ptr(reports.ID), "2024-q1")
	file := f.upload(t, ptr(q1.ID), "summary.pdf", "pdf")

	assert.Equal(t, "reports/2024-q1/"+file.Basename, file.PhysicalKey)
}

func TestUploadFile_SameNameTwiceCoexists(t *testing.T) {
	f := newFixture(t)

	first := f.upload(t, nil, "report.pdf", "v1")
	second := f.upload(t, nil, "report.pdf", "v2")

	assert.NotEqual(t, first.Basename, second.Basename)
	assert.Equal(t, 2, f.blobs.Len())
}

func TestUploadFile_MissingFolder(t *testing.T) {
	f := newFixture(t)

	missing := metadata.FolderID("no-such-folder")
	_, err := f.svc.UploadFile(context.Background(), alice, Upload{
		Org:      testOrg,
		FolderID: &missing,
		Name:     "x.txt",
		Data:     []byte("x"),
	})
	assert.True(t, metadata.IsNotFound(err), "expected not found, got %v", err)
}

func TestUploadFile_CrossOrgFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	foreign, err := f.svc.CreateFolder(ctx, bob, otherOrg, nil, "theirs")
	require.NoError(t, err)

	_, err = f.svc.UploadFile(ctx, alice, Upload{
		Org:      testOrg,
		FolderID: ptr(foreign.ID),
		Name:     "x.txt",
		Data:     []byte("x"),
	})
	assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument), "expected invalid argument, got %v", err)
}

func TestUploadFile_RecordFailureCleansUpBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := f.upload(t, nil, "first.txt", "x")

	// Force the next record insert to collide on the file id.
	f.svc.newID = func() string { return string(existing.ID) }

	_, err := f.svc.UploadFile(ctx, alice, Upload{
		Org:  testOrg,
		Name: "second.txt",
		Data: []byte("y"),
	})
	require.Error(t, err)

	// The blob written for the failed upload was removed again.
	assert.Equal(t, []string{existing.PhysicalKey}, f.blobs.Keys())
}

func TestDownloadFile_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder := f.folder(t, nil, "docs")
	uploaded := f.upload(t, ptr(folder.ID), "a.txt", "file content")

	record, reader, err := f.svc.DownloadFile(ctx, alice, uploaded.ID)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, uploaded.ID, record.ID)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "file content", string(data))
}

func TestDownloadFile_NotFound(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.DownloadFile(context.Background(), alice, "missing")
	assert.True(t, metadata.IsNotFound(err))
}

func TestGetFile_NonMemberForbidden(t *testing.T) {
	f := newFixture(t)

	file := f.upload(t, nil, "private.txt", "x")

	_, err := f.svc.GetFile(context.Background(), bob, file.ID)
	assert.True(t, metadata.IsCode(err, metadata.ErrForbidden), "expected forbidden, got %v", err)
}

func TestUpdateFile_MetadataOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, nil, "draft.txt", "x")

	newName := "final.txt"
	newDescription := "signed off"
	newTags := []string{"release", "2024"}

	updated, err := f.svc.UpdateFile(ctx, alice, file.ID, FileUpdate{
		Name:        &newName,
		Description: &newDescription,
		Tags:        &newTags,
	})
	require.NoError(t, err)

	assert.Equal(t, "final.txt", updated.Name)
	assert.Equal(t, "signed off", updated.Description)
	assert.Equal(t, newTags, updated.Tags)

	// Renaming the display name never touches the physical key.
	assert.Equal(t, file.Basename, updated.Basename)
	assert.Equal(t, file.PhysicalKey, updated.PhysicalKey)
	assert.Equal(t, []string{file.PhysicalKey}, f.blobs.Keys())
}

func TestUpdateFile_NilFieldsKeepValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file, err := f.svc.UploadFile(ctx, alice, Upload{
		Org:         testOrg,
		Name:        "a.txt",
		Data:        []byte("x"),
		Description: "original",
		Tags:        []string{"keep"},
	})
	require.NoError(t, err)

	newName := "b.txt"
	updated, err := f.svc.UpdateFile(ctx, alice, file.ID, FileUpdate{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "b.txt", updated.Name)
	assert.Equal(t, "original", updated.Description)
	assert.Equal(t, []string{"keep"}, updated.Tags)
}

func TestDeleteFile_RemovesBlobAndRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, nil, "gone.txt", "x")

	require.NoError(t, f.svc.DeleteFile(ctx, alice, file.ID))

	assert.Equal(t, 0, f.blobs.Len())
	_, err := f.meta.GetFile(ctx, file.ID)
	assert.True(t, metadata.IsNotFound(err))
}

func TestDeleteFile_BlobFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, nil, "stuck.txt", "x")
	f.blobs.FailWith(file.PhysicalKey, blobmem.OpDelete, assert.AnError)

	err := f.svc.DeleteFile(ctx, alice, file.ID)
	require.Error(t, err)

	// Record survives so the file stays visible and deletable later.
	_, err = f.meta.GetFile(ctx, file.ID)
	assert.NoError(t, err)
}
