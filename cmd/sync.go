package cmd

import (
	"context"
	"time"

	"github.com/masmgr/changesync-go/internal/output"
	"github.com/masmgr/changesync-go/internal/store"
	"github.com/masmgr/changesync-go/internal/syncer"
	"github.com/urfave/cli/v2"
)

// SyncCmd returns the sync command.
func SyncCmd() *cli.Command {
	flags := append(commonFlags(), storeFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Primary branch bounding incremental syncs (default: from config or 'master')",
		},
	)

	return &cli.Command{
		Name:    "sync",
		Aliases: []string{"s"},
		Usage:   "Ingest new commits into the changeset store",
		Flags:   flags,
		Action:  syncAction,
	}
}

func syncAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		writer := output.NewSyncReportWriter(ctx.Output.Format)

		// Inactive repositories leave the store file untouched.
		if !ctx.Gate.Active() {
			ctx.Logger.WithField("repository", ctx.RepositoryID).Debug("repository inactive, skipping sync")
			return writer.Write(&output.SyncReport{Result: syncer.InactiveResult(ctx.RepositoryID), GeneratedAt: time.Now()}, ctx.Output)
		}

		s, err := ctx.OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		engine := syncer.NewEngine(ctx.Reader, s, ctx.Gate,
			syncer.Options{
				RepositoryID: ctx.RepositoryID,
				Branch:       ctx.Config.Repository.Branch,
				HeadRef:      ctx.Config.Repository.HeadRef,
			},
			syncer.WithLogger(ctx.Logger),
			syncer.WithLocker(syncer.Chain(
				syncer.NewMemoryLocker(),
				store.NewAdvisoryLocker(s, ctx.Config.Store.LockTTL()),
			)),
			syncer.WithHook(syncer.HookFunc(func(context.Context) error {
				ctx.Logger.WithField("repository", ctx.RepositoryID).Info("project associations refresh requested")
				return nil
			})),
		)

		result, err := engine.Sync(c.Context)
		if err != nil {
			return err
		}

		return writer.Write(&output.SyncReport{Result: result, GeneratedAt: time.Now()}, ctx.Output)
	})
}
