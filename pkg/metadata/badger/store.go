// Package badger implements metadata.Store using BadgerDB for
// persistence.
//
// This implementation provides a persistent metadata store backed by
// BadgerDB, a fast embedded key-value store. It is suitable for:
//   - Production environments requiring persistence across restarts
//   - Deployments where folder trees must survive process crashes
//
// Storage Model:
// The store uses namespaced key prefixes to organize organizations,
// folders, files, and their parent-child indexes (see keys.go for the
// schema). Multi-key mutations (record plus index entries) run inside
// a single Badger transaction, so each Store call is atomic even
// though cross-store consistency with the blob store is not.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// BadgerStore implements metadata.Store on top of a BadgerDB database.
//
// Thread Safety: BadgerDB transactions provide isolation; the store is
// safe for concurrent use without additional locking.
type BadgerStore struct {
	db *badger.DB
}

// BadgerStoreConfig contains configuration for creating a Badger
// metadata store. Decoding from the configuration file happens in
// pkg/config, which maps its own option keys onto this struct.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files
	// (value log, LSM tree, etc.). Created if missing.
	DBPath string

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64
}

// NewBadgerStore opens (or creates) a BadgerDB database at the
// configured path and returns a store ready for use.
//
// Context Cancellation:
// This operation checks the context before opening the database.
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if config.DBPath == "" {
		return nil, fmt.Errorf("badger store: db_path is required")
	}

	opts := badger.DefaultOptions(config.DBPath)
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None) // records are small, compression overhead not worth it

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// getRaw reads a key inside txn, translating badger.ErrKeyNotFound
// into a domain ErrNotFound with the given message.
func getRaw(txn *badger.Txn, key []byte, notFoundMsg string) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, metadata.NewError(metadata.ErrNotFound, notFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("badger get failed: %w", err)
	}
	return item.ValueCopy(nil)
}

// exists reports whether a key is present inside txn.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger get failed: %w", err)
	}
	return true, nil
}

// scanIDs collects the trailing id segment of every key under prefix.
func scanIDs(txn *badger.Txn, prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	var ids []string
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		ids = append(ids, string(key[len(prefix):]))
	}
	return ids
}
