// Package syncer incrementally copies a repository's commit history into
// the changeset store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/masmgr/changesync-go/internal/changeset"
	"github.com/masmgr/changesync-go/internal/git"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSyncInProgress is returned when a sync for the same repository is running.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrPersistence wraps store failures. The sync cursor never moves past
	// a revision that failed to persist.
	ErrPersistence = errors.New("persistence failure")
)

// Store is the changeset persistence the engine needs.
type Store interface {
	Latest(ctx context.Context, repositoryID string) (*changeset.Changeset, error)
	HasRevision(ctx context.Context, repositoryID, revision string) (bool, error)
	Create(ctx context.Context, draft *changeset.Draft, nodes changeset.NodeData) (*changeset.Changeset, error)
}

// Activity reports whether the repository should be synchronized at all.
type Activity interface {
	Active() bool
}

// Hook refreshes project associations of all changesets.
type Hook interface {
	RefreshAssociations(ctx context.Context) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context) error

func (f HookFunc) RefreshAssociations(ctx context.Context) error { return f(ctx) }

// Options identifies the repository being synchronized.
type Options struct {
	RepositoryID string
	Branch       string // primary branch whose head bounds incremental ranges
	HeadRef      string // ref used for full-history syncs
}

// Engine runs incremental syncs for one repository.
type Engine struct {
	reader  git.RepositoryReader
	store   Store
	gate    Activity
	builder *changeset.Builder
	locker  Locker
	hook    Hook
	log     logrus.FieldLogger
	opts    Options
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLocker replaces the default in-process locker.
func WithLocker(l Locker) EngineOption { return func(e *Engine) { e.locker = l } }

// WithHook sets the association refresh hook.
func WithHook(h Hook) EngineOption { return func(e *Engine) { e.hook = h } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) EngineOption { return func(e *Engine) { e.log = l } }

// NewEngine creates an Engine.
func NewEngine(reader git.RepositoryReader, store Store, gate Activity, opts Options, options ...EngineOption) *Engine {
	if opts.Branch == "" {
		opts.Branch = "master"
	}
	if opts.HeadRef == "" {
		opts.HeadRef = "HEAD"
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)

	e := &Engine{
		reader:  reader,
		store:   store,
		gate:    gate,
		builder: changeset.NewBuilder(reader, opts.RepositoryID),
		locker:  NewMemoryLocker(),
		log:     silent,
		opts:    opts,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Result describes one sync run.
type Result struct {
	RunID        string
	RepositoryID string
	Inactive     bool
	FirstSync    bool
	Revisions    []string // computed range, in application order
	Persisted    int
	Skipped      int
}

// InactiveResult is the zero-work Result of a sync on an inactive repository.
func InactiveResult(repositoryID string) Result {
	return Result{RunID: uuid.NewString(), RepositoryID: repositoryID, Inactive: true}
}

// Sync ingests every revision not yet persisted. It returns a zero-work
// Result without error when the repository is inactive. On failure the
// revisions persisted so far stay persisted and the failing revision is
// retried by the next run.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	if !e.gate.Active() {
		e.log.WithField("repository", e.opts.RepositoryID).Debug("repository inactive, skipping sync")
		return InactiveResult(e.opts.RepositoryID), nil
	}
	res := Result{RunID: uuid.NewString(), RepositoryID: e.opts.RepositoryID}

	log := e.log.WithFields(logrus.Fields{"repository": e.opts.RepositoryID, "run": res.RunID})

	unlock, err := e.locker.Lock(ctx, e.opts.RepositoryID)
	if err != nil {
		return res, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer unlock()

	revisions, firstSync, err := e.determineRange(ctx, log)
	if err != nil {
		return res, err
	}
	res.Revisions = revisions
	res.FirstSync = firstSync

	if len(revisions) > 0 {
		log.Debugf("SYNC Revisions: %s - %s", revisions[0], revisions[len(revisions)-1])
	} else {
		log.Debug("SYNC Revisions: none")
	}

	for _, rev := range revisions {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		created, err := e.ingest(ctx, rev)
		if err != nil {
			log.WithField("revision", rev).WithError(err).Error("sync stopped")
			return res, err
		}
		if created {
			res.Persisted++
		} else {
			res.Skipped++
		}
	}

	if res.Persisted > 0 && e.hook != nil {
		if err := e.hook.RefreshAssociations(ctx); err != nil {
			return res, fmt.Errorf("refresh associations: %w", err)
		}
	}

	log.WithFields(logrus.Fields{"persisted": res.Persisted, "skipped": res.Skipped}).Info("sync finished")
	return res, nil
}

// determineRange returns the revisions to ingest in application order and
// whether this is a full-history sync.
func (e *Engine) determineRange(ctx context.Context, log logrus.FieldLogger) ([]string, bool, error) {
	latest, err := e.store.Latest(ctx, e.opts.RepositoryID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read sync cursor: %w", ErrPersistence, err)
	}

	if latest != nil {
		last, err := e.tip(ctx, latest.Revision)
		if err != nil {
			return nil, false, err
		}
		head, err := e.tip(ctx, e.opts.Branch)
		if err != nil {
			return nil, false, err
		}

		switch {
		case last == nil:
			log.WithField("revision", latest.Revision).Warn("last synced revision not found, syncing full history")
		case head == nil:
			log.WithField("branch", e.opts.Branch).Warn("primary branch not found, syncing full history")
		default:
			commits, err := e.reader.CommitsBetween(ctx, last.ID, head.ID)
			if err != nil {
				return nil, false, fmt.Errorf("compute range %s..%s: %w", last.ID, head.ID, err)
			}
			return ids(commits), false, nil
		}
	}

	commits, err := e.reader.Commits(ctx, e.opts.HeadRef, 0)
	if errors.Is(err, git.ErrRevisionNotFound) {
		log.WithField("ref", e.opts.HeadRef).Debug("head not found, repository is empty")
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read history from %s: %w", e.opts.HeadRef, err)
	}

	revisions := ids(commits)
	for i, j := 0, len(revisions)-1; i < j; i, j = i+1, j-1 {
		revisions[i], revisions[j] = revisions[j], revisions[i]
	}
	return revisions, true, nil
}

// tip resolves rev to its commit; a nil commit means rev does not resolve.
func (e *Engine) tip(ctx context.Context, rev string) (*git.Commit, error) {
	commits, err := e.reader.Commits(ctx, rev, 1)
	if errors.Is(err, git.ErrRevisionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	if len(commits) == 0 {
		return nil, nil
	}
	return &commits[0], nil
}

// ingest builds and persists one revision. It reports false when the
// revision was already stored.
func (e *Engine) ingest(ctx context.Context, rev string) (bool, error) {
	exists, err := e.store.HasRevision(ctx, e.opts.RepositoryID, rev)
	if err != nil {
		return false, fmt.Errorf("%w: revision %s: %w", ErrPersistence, rev, err)
	}
	if exists {
		return false, nil
	}

	draft, nodes, err := e.builder.Build(ctx, rev)
	if err != nil {
		return false, err
	}

	if _, err := e.store.Create(ctx, draft, nodes); err != nil {
		return false, fmt.Errorf("%w: revision %s: %w", ErrPersistence, rev, err)
	}
	return true, nil
}

func ids(commits []git.Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.ID
	}
	return out
}
