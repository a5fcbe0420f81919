package tree

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexushq/drivefs/pkg/authz"
	blobmem "github.com/nexushq/drivefs/pkg/blob/memory"
	"github.com/nexushq/drivefs/pkg/metadata"
	metamem "github.com/nexushq/drivefs/pkg/metadata/memory"
)

const (
	testOrg   = metadata.OrgID("org-1")
	otherOrg  = metadata.OrgID("org-2")
	alice     = metadata.UserID("alice")
	bob       = metadata.UserID("bob") // not a member of testOrg
	rootAdmin = metadata.UserID("root")
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixture wires a Service over in-memory stores with a deterministic
// clock (one millisecond per call) and sequential ids, so basenames,
// keys, and listing order are stable across runs.
type fixture struct {
	svc   *Service
	meta  *metamem.MemoryStore
	blobs *blobmem.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	meta := metamem.NewMemoryStore()
	t.Cleanup(func() { meta.Close() })
	blobs := blobmem.NewMemoryStore()

	gate := authz.NewGate(authz.NewStoreAuthorizer(meta, []metadata.UserID{rootAdmin}))
	svc := NewService(meta, blobs, gate)

	var tick int64
	svc.now = func() time.Time {
		tick++
		return testEpoch.Add(time.Duration(tick) * time.Millisecond)
	}
	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	}

	ctx := context.Background()
	require.NoError(t, meta.PutOrganization(ctx, &metadata.Organization{
		ID:        testOrg,
		Name:      "acme",
		Members:   []metadata.UserID{alice},
		CreatedAt: testEpoch,
	}))
	require.NoError(t, meta.PutOrganization(ctx, &metadata.Organization{
		ID:        otherOrg,
		Name:      "globex",
		Members:   []metadata.UserID{bob},
		CreatedAt: testEpoch,
	}))

	return &fixture{svc: svc, meta: meta, blobs: blobs}
}

func (f *fixture) folder(t *testing.T, parent *metadata.FolderID, name string) *metadata.Folder {
	t.Helper()

	folder, err := f.svc.CreateFolder(context.Background(), alice, testOrg, parent, name)
	require.NoError(t, err)
	return folder
}

func (f *fixture) upload(t *testing.T, parent *metadata.FolderID, name, content string) *metadata.File {
	t.Helper()

	file, err := f.svc.UploadFile(context.Background(), alice, Upload{
		Org:      testOrg,
		FolderID: parent,
		Name:     name,
		Data:     []byte(content),
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	return file
}

func ptr(id metadata.FolderID) *metadata.FolderID {
	return &id
}
