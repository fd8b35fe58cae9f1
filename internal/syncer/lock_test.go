package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_PerRepository(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	releaseA, err := l.Lock(ctx, "a")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "a")
	require.ErrorIs(t, err, ErrSyncInProgress)

	releaseB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	releaseB()

	releaseA()
	releaseA() // releasing twice is harmless

	releaseA, err = l.Lock(ctx, "a")
	require.NoError(t, err)
	releaseA()
}

func TestMemoryLocker_OneWinner(t *testing.T) {
	l := NewMemoryLocker()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0
	start := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := l.Lock(context.Background(), "repo")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else {
				losses++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, 15, losses)
}

type failLocker struct{ err error }

func (f failLocker) Lock(context.Context, string) (func(), error) { return nil, f.err }

func TestChain_ReleasesOnFailure(t *testing.T) {
	first := NewMemoryLocker()
	boom := errors.New("boom")
	ctx := context.Background()

	_, err := Chain(first, failLocker{err: boom}).Lock(ctx, "repo")
	require.ErrorIs(t, err, boom)

	release, err := first.Lock(ctx, "repo")
	require.NoError(t, err, "first lock must be released after chain failure")
	release()
}

func TestChain_HoldsAll(t *testing.T) {
	a, b := NewMemoryLocker(), NewMemoryLocker()
	ctx := context.Background()

	release, err := Chain(a, b).Lock(ctx, "repo")
	require.NoError(t, err)

	_, err = a.Lock(ctx, "repo")
	require.ErrorIs(t, err, ErrSyncInProgress)
	_, err = b.Lock(ctx, "repo")
	require.ErrorIs(t, err, ErrSyncInProgress)

	release()
	release, err = b.Lock(ctx, "repo")
	require.NoError(t, err)
	release()
}
