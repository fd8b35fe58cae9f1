package changeset

import (
	"context"
	"fmt"

	"github.com/masmgr/changesync-go/internal/git"
)

// Builder converts repository commits into changeset drafts.
type Builder struct {
	reader       git.RepositoryReader
	repositoryID string
}

// NewBuilder creates a Builder reading from reader on behalf of repositoryID.
func NewBuilder(reader git.RepositoryReader, repositoryID string) *Builder {
	return &Builder{reader: reader, repositoryID: repositoryID}
}

// Build fetches revision and returns its draft and classified node changes.
// It returns an error wrapping git.ErrRevisionNotFound if the revision
// cannot be resolved. Nothing is persisted.
func (b *Builder) Build(ctx context.Context, revision string) (*Draft, NodeData, error) {
	commit, err := b.reader.Commit(ctx, revision)
	if err != nil {
		return nil, NodeData{}, fmt.Errorf("build changeset %s: %w", revision, err)
	}

	draft := &Draft{
		RepositoryID:     b.repositoryID,
		Revision:         revision,
		Author:           commit.Committer.Name,
		Log:              commit.Message,
		CreatedAt:        commit.Committer.When,
		SkipAssociations: true,
	}
	return draft, Classify(commit), nil
}
