package tree

import "sync"

// lockManager hands out named mutexes so that mutating operations on
// the same subtree serialize while disjoint subtrees proceed in
// parallel. Entries are reference-counted and removed once the last
// holder releases, so the map stays bounded by in-flight operations.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]*lockEntry)}
}

// lock acquires the named lock and returns its release function.
func (m *lockManager) lock(name string) func() {
	m.mu.Lock()
	entry, ok := m.locks[name]
	if !ok {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	m.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		m.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(m.locks, name)
		}
		m.mu.Unlock()
	}
}

// rwLockManager hands out named read/write locks with the same
// refcounted lifecycle as lockManager. One lock per organization:
// cascades take the write side so every path computation they make
// stays valid for their whole run, while level-scoped mutations share
// the read side and serialize among themselves through lockManager.
type rwLockManager struct {
	mu    sync.Mutex
	locks map[string]*rwLockEntry
}

type rwLockEntry struct {
	mu   sync.RWMutex
	refs int
}

func newRWLockManager() *rwLockManager {
	return &rwLockManager{locks: make(map[string]*rwLockEntry)}
}

func (m *rwLockManager) acquire(name string) *rwLockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[name]
	if !ok {
		entry = &rwLockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

func (m *rwLockManager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.locks[name]
	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, name)
	}
}

// lock acquires the named lock exclusively.
func (m *rwLockManager) lock(name string) func() {
	entry := m.acquire(name)
	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		m.release(name)
	}
}

// rlock acquires the named lock shared with other readers.
func (m *rwLockManager) rlock(name string) func() {
	entry := m.acquire(name)
	entry.mu.RLock()
	return func() {
		entry.mu.RUnlock()
		m.release(name)
	}
}
