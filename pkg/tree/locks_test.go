package tree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockManager_SerializesSameName(t *testing.T) {
	m := newLockManager()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.lock("shared")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestLockManager_DistinctNamesDoNotBlock(t *testing.T) {
	m := newLockManager()

	// Holding one lock must not block another name; a shared mutex
	// would deadlock this single goroutine.
	unlockA := m.lock("a")
	unlockB := m.lock("b")
	unlockB()
	unlockA()
}

func TestLockManager_DropsIdleEntries(t *testing.T) {
	m := newLockManager()

	unlock := m.lock("a")
	unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "released locks must not accumulate")
}

func TestRWLockManager_ReadersShare(t *testing.T) {
	m := newRWLockManager()

	// Two shared holds on the same name in one goroutine; an exclusive
	// lock here would deadlock.
	release1 := m.rlock("org")
	release2 := m.rlock("org")
	release2()
	release1()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "released locks must not accumulate")
}

func TestRWLockManager_WriterIsExclusive(t *testing.T) {
	m := newRWLockManager()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := m.lock("org")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestRWLockManager_DistinctNamesDoNotBlock(t *testing.T) {
	m := newRWLockManager()

	releaseA := m.lock("org-a")
	releaseB := m.lock("org-b")
	releaseB()
	releaseA()
}
