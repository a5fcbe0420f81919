// Package memory implements blob.Store backed by an in-memory map.
//
// Intended for tests and development. Besides the plain contract it
// supports per-key, per-operation failure injection so cascade tests
// can simulate partial blob-store failures deterministically.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/nexushq/drivefs/pkg/blob"
)

// Op names a blob operation for failure injection.
type Op string

const (
	OpPut    Op = "put"
	OpGet    Op = "get"
	OpDelete Op = "delete"
	OpCopy   Op = "copy"
	OpExists Op = "exists"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore implements blob.Store with an in-memory object map.
type MemoryStore struct {
	mu       sync.RWMutex
	objects  map[string]object
	failures map[string]map[Op]error
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string]object),
		failures: make(map[string]map[Op]error),
	}
}

// FailWith makes the given operation on the given key return err.
// For OpCopy the key matched is the *source* key.
func (s *MemoryStore) FailWith(key string, op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures[key] == nil {
		s.failures[key] = make(map[Op]error)
	}
	s.failures[key][op] = err
}

// ClearFailures removes all injected failures.
func (s *MemoryStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = make(map[string]map[Op]error)
}

// injected returns the configured failure for key/op, if any.
// Callers must hold at least a read lock.
func (s *MemoryStore) injected(key string, op Op) error {
	if ops, ok := s.failures[key]; ok {
		if err, ok := ops[op]; ok {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(key, OpPut); err != nil {
		return err
	}

	s.objects[key] = object{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.injected(key, OpGet); err != nil {
		return nil, err
	}

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, blob.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), obj.data...))), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(key, OpDelete); err != nil {
		return err
	}

	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) Copy(ctx context.Context, oldKey, newKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(oldKey, OpCopy); err != nil {
		return err
	}

	src, ok := s.objects[oldKey]
	if !ok {
		return fmt.Errorf("object %s: %w", oldKey, blob.ErrNotFound)
	}
	s.objects[newKey] = object{
		data:        append([]byte(nil), src.data...),
		contentType: src.contentType,
	}
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.injected(key, OpExists); err != nil {
		return false, err
	}

	_, ok := s.objects[key]
	return ok, nil
}

// Keys returns all stored object keys, sorted. Test helper.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored objects. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}
