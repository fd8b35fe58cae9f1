package syncer

import (
	"context"
	"fmt"
	"sync"
)

// Locker grants exclusive sync ownership of a repository.
type Locker interface {
	// Lock acquires the lock for repositoryID without waiting and returns
	// the function that releases it.
	Lock(ctx context.Context, repositoryID string) (func(), error)
}

// MemoryLocker is an in-process Locker with one mutex per repository.
// A second Lock on a held repository fails with ErrSyncInProgress.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MemoryLocker) Lock(_ context.Context, repositoryID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[repositoryID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[repositoryID] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, fmt.Errorf("%w: %s", ErrSyncInProgress, repositoryID)
	}
	return sync.OnceFunc(m.Unlock), nil
}

// Chain acquires every locker in order and releases them in reverse.
// If one fails, the locks already taken are released.
func Chain(lockers ...Locker) Locker {
	return chain(lockers)
}

type chain []Locker

func (c chain) Lock(ctx context.Context, repositoryID string) (func(), error) {
	releases := make([]func(), 0, len(c))
	release := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		unlock, err := l.Lock(ctx, repositoryID)
		if err != nil {
			release()
			return nil, err
		}
		releases = append(releases, unlock)
	}
	return sync.OnceFunc(release), nil
}
