package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/masmgr/changesync-go/config"
	"github.com/masmgr/changesync-go/internal/changeset"
	"github.com/masmgr/changesync-go/internal/gate"
	"github.com/masmgr/changesync-go/internal/git"
	"github.com/masmgr/changesync-go/internal/logging"
	"github.com/masmgr/changesync-go/internal/output"
	"github.com/masmgr/changesync-go/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// CommandContext holds common state for command execution.
type CommandContext struct {
	Config       *config.Config
	Logger       *logrus.Logger
	RepositoryID string
	Reader       git.RepositoryReader
	Gate         gate.Gate
	Output       output.OutputOptions
}

// NewCommandContext creates a context from CLI flags. A repository that
// cannot be opened yields an inactive gate rather than an error.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	// reader and validator stay nil for an unavailable repository; the gate
	// is then inactive and no component touches the reader.
	var reader git.RepositoryReader
	var validator gate.Validator
	hr, err := git.NewHistoryReader(git.ReadOptions{
		RepoPath: cfg.Repository.Path,
		Backend:  git.ParseBackend(cfg.Repository.Backend),
		Exclude:  cfg.Filters.Exclude,
	})
	switch {
	case errors.Is(err, git.ErrUnavailable):
		logger.WithError(err).Warn("repository unavailable, treating as inactive")
	case err != nil:
		return nil, fmt.Errorf("failed to open repository: %w", err)
	default:
		reader = hr
		validator = hr
	}

	return &CommandContext{
		Config:       cfg,
		Logger:       logger,
		RepositoryID: cfg.RepositoryID(),
		Reader:       reader,
		Gate:         gate.New(cfg.Enabled, validator),
		Output: output.OutputOptions{
			Format:     getOutputFormat(c.String("format")),
			OutputPath: c.String("output"),
			Revisions:  changeset.ParseFamily(cfg.Display.RevisionFamily),
		},
	}, nil
}

// OpenStore opens the configured changeset store. Changesets persisted
// without SkipAssociations are logged as needing an association update.
func (ctx *CommandContext) OpenStore() (*store.Store, error) {
	s, err := store.Open(ctx.Config.Store.Path, store.WithRecordHook(func(_ context.Context, cs *changeset.Changeset) error {
		ctx.Logger.WithFields(logrus.Fields{
			"repository": cs.RepositoryID,
			"revision":   cs.Revision,
		}).Debug("association update requested")
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// executeWithContext builds the CommandContext and runs fn with it.
func executeWithContext(c *cli.Context, fn func(ctx *CommandContext, c *cli.Context) error) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}
