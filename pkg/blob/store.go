// Package blob defines the contract for the external object store that
// holds file bytes. Object keys are "/"-delimited strings built from
// folder name segments by pkg/tree; this package treats keys as opaque.
package blob

import (
	"context"
	"errors"
	"io"
)

// Standard blob store errors.
//
// These provide a consistent way to indicate common failure conditions
// across implementations. Callers check them with errors.Is and map
// them to domain errors.
//
// Implementations should wrap these with additional context:
//
//	if !found {
//	    return fmt.Errorf("object %s: %w", key, blob.ErrNotFound)
//	}
var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrUnavailable indicates the backend is temporarily unreachable.
	// This is a transient error - retrying may succeed.
	ErrUnavailable = errors.New("blob store unavailable")
)

// Store is the object storage contract.
//
// All operations accept a context for cancellation and timeouts;
// callers are expected to apply deadlines around network-bound calls
// and treat ErrUnavailable as retryable.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns a reader for the object's bytes. The caller must
	// close the returned reader. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Idempotent: deleting an absent key
	// returns nil.
	Delete(ctx context.Context, key string) error

	// Copy duplicates the object at oldKey under newKey, leaving the
	// source in place. Returns ErrNotFound if the source is absent.
	// Key migration is always copy-then-delete so there is never a
	// moment with zero live copies.
	Copy(ctx context.Context, oldKey, newKey string) error

	// Exists reports whether an object is stored under key. Used by
	// listings to probe for broken file references.
	Exists(ctx context.Context, key string) (bool, error)
}
