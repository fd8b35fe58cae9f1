package query

import (
	"context"
	"fmt"

	"github.com/masmgr/changesync-go/internal/git"
)

// DefaultHistoryLimit bounds History when no positive limit is given.
const DefaultHistoryLimit = 100

// HistoryQuery lists the revisions that touched a path.
type HistoryQuery struct {
	reader       git.RepositoryReader
	gate         Activity
	headRef      string
	defaultLimit int
}

// NewHistoryQuery creates a HistoryQuery starting from headRef when no
// revision is given. Empty headRef means "HEAD"; non-positive
// defaultLimit means DefaultHistoryLimit.
func NewHistoryQuery(reader git.RepositoryReader, gate Activity, headRef string, defaultLimit int) *HistoryQuery {
	if headRef == "" {
		headRef = "HEAD"
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultHistoryLimit
	}
	return &HistoryQuery{reader: reader, gate: gate, headRef: headRef, defaultLimit: defaultLimit}
}

// History returns up to limit revision ids touching path, newest-first,
// starting at revision (or the head ref when revision is empty).
func (q *HistoryQuery) History(ctx context.Context, path, revision string, limit int) ([]string, error) {
	if !q.gate.Active() {
		return []string{}, nil
	}
	if revision == "" {
		revision = q.headRef
	}
	if limit <= 0 {
		limit = q.defaultLimit
	}

	commits, err := q.reader.Log(ctx, revision, path, limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s from %s: %w", path, revision, err)
	}

	revisions := make([]string, 0, len(commits))
	for _, c := range commits {
		revisions = append(revisions, c.ID)
	}
	return revisions, nil
}
