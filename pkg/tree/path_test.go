package tree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBasename(t *testing.T) {
	at := time.UnixMilli(1700000000000).UTC()
	assert.Equal(t, "1700000000000_report.pdf", NewBasename("report.pdf", at))
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "1700_a.txt", joinKey(nil, "1700_a.txt"))
	assert.Equal(t, "reports/2024/1700_a.txt", joinKey([]string{"reports", "2024"}, "1700_a.txt"))
}

func TestPathSegments_RootToLeaf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	b := f.folder(t, ptr(a.ID), "B")
	c := f.folder(t, ptr(b.ID), "C")

	segments, err := pathSegments(ctx, f.meta, ptr(c.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, segments)

	segments, err = pathSegments(ctx, f.meta, nil)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestPathSegments_DetectsParentCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, nil, "A")
	b := f.folder(t, ptr(a.ID), "B")

	// Corrupt the store directly: make A a child of B.
	a.ParentID = ptr(b.ID)
	require.NoError(t, f.meta.UpdateFolder(ctx, a))

	_, err := pathSegments(ctx, f.meta, ptr(b.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
