package git

import "context"

// RepositoryReader is the read capability the sync pipeline needs from a
// version-control repository. Implementations never write to the repository.
type RepositoryReader interface {
	// Commit fetches a single commit, including its file changes against the
	// first parent. Returns ErrRevisionNotFound if rev cannot be resolved.
	Commit(ctx context.Context, rev string) (*Commit, error)

	// Log returns commits reachable from `from` that touch path, newest-first,
	// bounded by limit. An empty path matches every commit.
	Log(ctx context.Context, from, path string, limit int) ([]Commit, error)

	// Commits returns the history reachable from ref, newest-first.
	// A limit <= 0 means unbounded.
	Commits(ctx context.Context, ref string, limit int) ([]Commit, error)

	// CommitsBetween returns the commits reachable from b but not from a,
	// ancestors before descendants.
	CommitsBetween(ctx context.Context, a, b string) ([]Commit, error)

	// DiffText returns the raw unified diff of path between two revisions.
	DiffText(ctx context.Context, path, revA, revB string) (string, error)

	// Valid reports whether the repository is still reachable.
	Valid() bool
}

// Compile-time interface conformance check.
var _ RepositoryReader = (*HistoryReader)(nil)
