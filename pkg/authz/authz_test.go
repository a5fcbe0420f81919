package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexushq/drivefs/pkg/metadata"
	"github.com/nexushq/drivefs/pkg/metadata/memory"
)

func newGate(t *testing.T) (*Gate, metadata.Store) {
	t.Helper()

	store := memory.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.PutOrganization(context.Background(), &metadata.Organization{
		ID:        "org-1",
		Name:      "acme",
		Members:   []metadata.UserID{"alice"},
		CreatedAt: time.Now(),
	}))

	return NewGate(NewStoreAuthorizer(store, []metadata.UserID{"root"})), store
}

func TestGate_MemberAllowed(t *testing.T) {
	gate, _ := newGate(t)
	assert.NoError(t, gate.Require(context.Background(), "alice", "org-1"))
}

func TestGate_NonMemberForbidden(t *testing.T) {
	gate, _ := newGate(t)

	err := gate.Require(context.Background(), "bob", "org-1")
	assert.True(t, metadata.IsCode(err, metadata.ErrForbidden), "expected forbidden, got %v", err)
}

func TestGate_AdminBypassesMembership(t *testing.T) {
	gate, _ := newGate(t)
	assert.NoError(t, gate.Require(context.Background(), "root", "org-1"))
}

func TestGate_MissingOrgIsNotFound(t *testing.T) {
	gate, _ := newGate(t)

	err := gate.Require(context.Background(), "alice", "no-such-org")
	assert.True(t, metadata.IsNotFound(err), "expected not found, got %v", err)
}

func TestGate_EmptyUserForbidden(t *testing.T) {
	gate, _ := newGate(t)

	err := gate.Require(context.Background(), "", "org-1")
	assert.True(t, metadata.IsCode(err, metadata.ErrForbidden))
}
