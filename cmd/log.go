package cmd

import (
	"github.com/masmgr/changesync-go/internal/output"
	"github.com/masmgr/changesync-go/internal/store"
	"github.com/urfave/cli/v2"
)

// LogCmd returns the log command listing persisted changesets.
func LogCmd() *cli.Command {
	flags := append(commonFlags(), storeFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "nodes",
			Usage: "Show node changes of each changeset",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of changesets (0 for all)",
		},
	)

	return &cli.Command{
		Name:   "log",
		Usage:  "List synchronized changesets, oldest first",
		Flags:  flags,
		Action: logAction,
	}
}

func logAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		s, err := ctx.OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		withNodes := c.Bool("nodes")
		changesets, err := s.List(c.Context, ctx.RepositoryID, store.ListOptions{
			Limit:     c.Int("limit"),
			WithNodes: withNodes,
		})
		if err != nil {
			return err
		}
		total, err := s.Count(c.Context, ctx.RepositoryID)
		if err != nil {
			return err
		}

		writer := output.NewChangesetReportWriter(ctx.Output.Format)
		return writer.Write(&output.ChangesetReport{
			RepositoryID: ctx.RepositoryID,
			Total:        total,
			Changesets:   changesets,
			WithNodes:    withNodes,
		}, ctx.Output)
	})
}
