package git

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockReader is an in-memory RepositoryReader for tests.
// Commits form a DAG through their Parents; refs map names such as "HEAD"
// or "master" to commit ids.
type MockReader struct {
	mu      sync.RWMutex
	commits map[string]Commit
	refs    map[string]string
	diffs   map[string]string

	// Invalid makes Valid report false.
	Invalid bool
	// Err, when set, is returned by every read operation.
	Err error
}

// NewMockReader creates an empty MockReader.
func NewMockReader() *MockReader {
	return &MockReader{
		commits: make(map[string]Commit),
		refs:    make(map[string]string),
		diffs:   make(map[string]string),
	}
}

// AddCommit registers a commit. It does not move any ref.
func (m *MockReader) AddCommit(c Commit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits[c.ID] = c
}

// SetRef points a ref name at a commit id.
func (m *MockReader) SetRef(name, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[name] = id
}

// SetDiff registers the raw diff text returned for (path, revA, revB).
func (m *MockReader) SetDiff(path, revA, revB, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diffs[diffKey(path, revA, revB)] = text
}

func (m *MockReader) Valid() bool { return !m.Invalid }

func (m *MockReader) Commit(_ context.Context, rev string) (*Commit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, err := m.resolve(rev)
	if err != nil {
		return nil, err
	}
	c := m.commits[id]
	c.Changes = append([]FileChange(nil), c.Changes...)
	return &c, nil
}

func (m *MockReader) Log(ctx context.Context, from, path string, limit int) ([]Commit, error) {
	all, err := m.Commits(ctx, from, 0)
	if err != nil {
		return nil, err
	}

	path = normalizePath(path)
	var out []Commit
	for _, c := range all {
		if !m.touches(c.ID, path) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockReader) Commits(ctx context.Context, ref string, limit int) ([]Commit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	tip, err := m.resolve(ref)
	if err != nil {
		return nil, err
	}
	ids, err := topoOrder(ctx, tip, m.parents, nil)
	if err != nil {
		return nil, err
	}
	ids = reversed(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return m.list(ids), nil
}

func (m *MockReader) CommitsBetween(ctx context.Context, a, b string) ([]Commit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	from, err := m.resolve(a)
	if err != nil {
		return nil, err
	}
	to, err := m.resolve(b)
	if err != nil {
		return nil, err
	}
	exclude, err := ancestors(ctx, from, m.parents)
	if err != nil {
		return nil, err
	}
	ids, err := topoOrder(ctx, to, m.parents, exclude)
	if err != nil {
		return nil, err
	}
	return m.list(ids), nil
}

func (m *MockReader) DiffText(_ context.Context, path, revA, revB string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.diffs[diffKey(path, revA, revB)], nil
}

// resolve looks up refs, then full ids, then unique id prefixes.
func (m *MockReader) resolve(rev string) (string, error) {
	if id, ok := m.refs[rev]; ok {
		rev = id
	}
	if _, ok := m.commits[rev]; ok {
		return rev, nil
	}
	if rev != "" {
		var match string
		for id := range m.commits {
			if strings.HasPrefix(id, rev) {
				if match != "" {
					return "", fmt.Errorf("%w: ambiguous %s", ErrRevisionNotFound, rev)
				}
				match = id
			}
		}
		if match != "" {
			return match, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
}

func (m *MockReader) parents(id string) ([]string, error) {
	c, ok := m.commits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, id)
	}
	return c.Parents, nil
}

func (m *MockReader) touches(id, path string) bool {
	if path == "" {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.commits[id].Changes {
		if pathMatches(path, ch.Path) || (ch.OldPath != "" && pathMatches(path, ch.OldPath)) {
			return true
		}
	}
	return false
}

func (m *MockReader) list(ids []string) []Commit {
	out := make([]Commit, 0, len(ids))
	for _, id := range ids {
		c := m.commits[id]
		c.Changes = nil
		out = append(out, c)
	}
	return out
}

func diffKey(path, revA, revB string) string {
	return path + "\x00" + revA + "\x00" + revB
}

// Compile-time interface conformance check.
var _ RepositoryReader = (*MockReader)(nil)
