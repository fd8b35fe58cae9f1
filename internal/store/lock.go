package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned when another owner holds a repository's sync lock.
var ErrLockHeld = errors.New("sync lock held by another process")

// AdvisoryLocker is a cross-process sync lock stored in the sync_locks table.
// Locks older than TTL are considered abandoned and may be taken over.
type AdvisoryLocker struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time
}

// NewAdvisoryLocker creates a locker on s. A non-positive ttl never expires locks.
func NewAdvisoryLocker(s *Store, ttl time.Duration) *AdvisoryLocker {
	return &AdvisoryLocker{store: s, ttl: ttl, now: time.Now}
}

// Lock acquires the lock for repositoryID and returns its release function.
func (l *AdvisoryLocker) Lock(ctx context.Context, repositoryID string) (func(), error) {
	owner := uuid.NewString()
	now := l.now()

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin lock transaction: %w", err)
	}
	defer tx.Rollback()

	if l.ttl > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sync_locks WHERE repository_id = ? AND acquired_at < ?`,
			repositoryID, now.Add(-l.ttl).UnixNano(),
		); err != nil {
			return nil, fmt.Errorf("expire stale lock: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sync_locks (repository_id, owner, acquired_at)
		VALUES (?, ?, ?)
		ON CONFLICT(repository_id) DO NOTHING
	`, repositoryID, owner, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert lock: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, repositoryID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lock: %w", err)
	}

	return func() {
		// Release must run even when ctx was cancelled mid-sync.
		_, _ = l.store.db.ExecContext(context.Background(),
			`DELETE FROM sync_locks WHERE repository_id = ? AND owner = ?`,
			repositoryID, owner)
	}, nil
}
