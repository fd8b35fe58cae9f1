package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// renameScore matches git's default similarity threshold for -M.
const renameScore = 60

// HistoryReader reads commits from a Git repository on disk.
// It is safe for concurrent use; each call keeps its own traversal state.
type HistoryReader struct {
	repo *git.Repository
	opts ReadOptions
}

// NewHistoryReader opens the repository at opts.RepoPath.
func NewHistoryReader(opts ReadOptions) (*HistoryReader, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	repo, err := git.PlainOpenWithOptions(opts.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, opts.RepoPath, err)
	}
	if opts.Backend == "" {
		opts.Backend = BackendNative
	}
	return &HistoryReader{repo: repo, opts: opts}, nil
}

// Valid reports whether the repository directory is still present.
func (r *HistoryReader) Valid() bool {
	if r == nil || r.repo == nil {
		return false
	}
	_, err := os.Stat(r.opts.RepoPath)
	return err == nil
}

// Commit resolves rev and returns it with its file changes.
func (r *HistoryReader) Commit(ctx context.Context, rev string) (*Commit, error) {
	c, err := r.resolve(rev)
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	switch r.opts.Backend {
	case BackendCLI:
		changes, err = r.cliChanges(ctx, c)
	default:
		changes, err = r.nativeChanges(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	commit := toCommit(c)
	commit.Changes = r.filterChanges(changes)
	return &commit, nil
}

// Log returns commits reachable from `from` touching path, newest-first.
func (r *HistoryReader) Log(ctx context.Context, from, path string, limit int) ([]Commit, error) {
	start, err := r.resolve(from)
	if err != nil {
		return nil, err
	}

	logOpts := &git.LogOptions{From: start.Hash, Order: git.LogOrderCommitterTime}
	if path = normalizePath(path); path != "" {
		logOpts.PathFilter = func(p string) bool { return pathMatches(path, p) }
	}

	cIter, err := r.repo.Log(logOpts)
	if err != nil {
		return nil, r.unavailable("log", err)
	}
	defer cIter.Close()

	var results []Commit
	err = cIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		results = append(results, toCommit(c))
		if limit > 0 && len(results) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, r.unavailable("log", err)
	}
	return results, nil
}

// Commits returns the history reachable from ref, newest-first.
func (r *HistoryReader) Commits(ctx context.Context, ref string, limit int) ([]Commit, error) {
	tip, err := r.resolve(ref)
	if err != nil {
		return nil, err
	}
	if limit == 1 {
		return []Commit{toCommit(tip)}, nil
	}

	w := newCommitWalker(r)
	ids, err := topoOrder(ctx, tip.Hash.String(), w.parents, nil)
	if err != nil {
		return nil, err
	}
	ids = reversed(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return w.commits(ids)
}

// CommitsBetween returns commits reachable from b and not from a, ancestors first.
func (r *HistoryReader) CommitsBetween(ctx context.Context, a, b string) ([]Commit, error) {
	from, err := r.resolve(a)
	if err != nil {
		return nil, err
	}
	to, err := r.resolve(b)
	if err != nil {
		return nil, err
	}

	w := newCommitWalker(r)
	exclude, err := ancestors(ctx, from.Hash.String(), w.parents)
	if err != nil {
		return nil, err
	}
	ids, err := topoOrder(ctx, to.Hash.String(), w.parents, exclude)
	if err != nil {
		return nil, err
	}
	return w.commits(ids)
}

// DiffText returns the unified diff of path between revA and revB.
func (r *HistoryReader) DiffText(ctx context.Context, path, revA, revB string) (string, error) {
	if r.opts.Backend == BackendCLI {
		return r.cliDiffText(ctx, path, revA, revB)
	}

	a, err := r.resolve(revA)
	if err != nil {
		return "", err
	}
	b, err := r.resolve(revB)
	if err != nil {
		return "", err
	}

	patch, err := a.PatchContext(ctx, b)
	if err != nil {
		return "", r.unavailable("patch", err)
	}

	path = normalizePath(path)
	var selected []fdiff.FilePatch
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		if (from != nil && pathMatches(path, from.Path())) || (to != nil && pathMatches(path, to.Path())) {
			selected = append(selected, fp)
		}
	}
	if len(selected) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines)
	if err := enc.Encode(pathPatch{filePatches: selected}); err != nil {
		return "", r.unavailable("encode diff", err)
	}
	return buf.String(), nil
}

// nativeChanges diffs the commit tree against its first parent using go-git.
func (r *HistoryReader) nativeChanges(ctx context.Context, c *object.Commit) ([]FileChange, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, r.unavailable("tree", err)
	}

	// Root commits are diffed against an empty tree.
	parentTree := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, r.unavailable("parent", err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, r.unavailable("parent tree", err)
		}
	}

	diffs, err := object.DiffTreeWithOptions(ctx, parentTree, tree, &object.DiffTreeOptions{
		DetectRenames: true,
		RenameScore:   renameScore,
	})
	if err != nil {
		return nil, r.unavailable("diff tree", err)
	}

	changes := make([]FileChange, 0, len(diffs))
	for _, d := range diffs {
		if !d.From.TreeEntry.Mode.IsFile() && !d.To.TreeEntry.Mode.IsFile() {
			continue
		}

		from, to := d.From.Name, d.To.Name
		switch {
		case from == "" && to != "":
			changes = append(changes, FileChange{Status: "A", Path: to})
		case from != "" && to == "":
			changes = append(changes, FileChange{Status: "D", Path: from, OldPath: from})
		case from != to:
			changes = append(changes, FileChange{Status: "R", Path: to, OldPath: from})
		case d.From.TreeEntry.Mode != d.To.TreeEntry.Mode && isTypeChange(d.From.TreeEntry.Mode, d.To.TreeEntry.Mode):
			changes = append(changes, FileChange{Status: "T", Path: to, OldPath: from})
		default:
			changes = append(changes, FileChange{Status: "M", Path: to, OldPath: from})
		}
	}
	return changes, nil
}

// isTypeChange reports a blob/symlink swap, which git reports as "T".
func isTypeChange(a, b filemode.FileMode) bool {
	return (a == filemode.Symlink) != (b == filemode.Symlink)
}

func (r *HistoryReader) filterChanges(changes []FileChange) []FileChange {
	if len(r.opts.Exclude) == 0 {
		return changes
	}
	kept := changes[:0]
	for _, ch := range changes {
		if r.excluded(ch.Path) {
			continue
		}
		kept = append(kept, ch)
	}
	return kept
}

// excluded checks a path against the exclude globs.
func (r *HistoryReader) excluded(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")
	for _, pattern := range r.opts.Exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func (r *HistoryReader) resolve(rev string) (*object.Commit, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return nil, fmt.Errorf("%w: empty revision", ErrRevisionNotFound)
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
	}

	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
		}
		return nil, r.unavailable("commit "+rev, err)
	}
	return c, nil
}

func (r *HistoryReader) unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// commitWalker caches commit objects for the duration of one traversal.
type commitWalker struct {
	r     *HistoryReader
	cache map[string]*object.Commit
}

func newCommitWalker(r *HistoryReader) *commitWalker {
	return &commitWalker{r: r, cache: make(map[string]*object.Commit)}
}

func (w *commitWalker) object(id string) (*object.Commit, error) {
	if c, ok := w.cache[id]; ok {
		return c, nil
	}
	c, err := w.r.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, id)
		}
		return nil, w.r.unavailable("commit "+id, err)
	}
	w.cache[id] = c
	return c, nil
}

func (w *commitWalker) parents(id string) ([]string, error) {
	c, err := w.object(id)
	if err != nil {
		return nil, err
	}
	ps := make([]string, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		ps[i] = h.String()
	}
	return ps, nil
}

func (w *commitWalker) commits(ids []string) ([]Commit, error) {
	out := make([]Commit, 0, len(ids))
	for _, id := range ids {
		c, err := w.object(id)
		if err != nil {
			return nil, err
		}
		out = append(out, toCommit(c))
	}
	return out, nil
}

func toCommit(c *object.Commit) Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = h.String()
	}
	return Commit{
		ID:        c.Hash.String(),
		Parents:   parents,
		Author:    Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer: Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:   c.Message,
	}
}

// pathPatch is a go-git Patch restricted to the file patches of one path.
type pathPatch struct {
	filePatches []fdiff.FilePatch
}

func (p pathPatch) FilePatches() []fdiff.FilePatch { return p.filePatches }
func (p pathPatch) Message() string                { return "" }

func normalizePath(path string) string {
	path = strings.ReplaceAll(strings.TrimSpace(path), "\\", "/")
	return strings.Trim(path, "/")
}

// pathMatches reports whether candidate is path itself or lies below it.
// An empty path matches everything.
func pathMatches(path, candidate string) bool {
	if path == "" {
		return true
	}
	return candidate == path || strings.HasPrefix(candidate, path+"/")
}
