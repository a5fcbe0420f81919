package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexushq/drivefs/pkg/metadata"
	"github.com/nexushq/drivefs/pkg/metadata/storetest"
)

func TestMemoryStore_Contract(t *testing.T) {
	suite := &storetest.Suite{
		NewStore: func(t *testing.T) metadata.Store {
			return NewMemoryStore()
		},
	}
	suite.Run(t)
}

func TestMemoryStore_ClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	assert.NoError(t, store.Close())

	_, err := store.GetOrganization(ctx, "org-1")
	assert.True(t, metadata.IsCode(err, metadata.ErrUnavailable))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	org := &metadata.Organization{ID: "org-1", Name: "acme", Members: []metadata.UserID{"alice"}}
	assert.NoError(t, store.PutOrganization(ctx, org))

	got, err := store.GetOrganization(ctx, "org-1")
	assert.NoError(t, err)

	// Mutating the returned record must not affect stored state
	got.Members[0] = "mallory"
	again, err := store.GetOrganization(ctx, "org-1")
	assert.NoError(t, err)
	assert.Equal(t, metadata.UserID("alice"), again.Members[0])
}
