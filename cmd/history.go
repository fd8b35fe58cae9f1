package cmd

import (
	"fmt"

	"github.com/masmgr/changesync-go/internal/output"
	"github.com/masmgr/changesync-go/internal/query"
	"github.com/urfave/cli/v2"
)

// HistoryCmd returns the history command.
func HistoryCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:  "revision",
			Usage: "Revision to start from (default: HEAD)",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of revisions (default: from config or 100)",
		},
	)

	return &cli.Command{
		Name:      "history",
		Usage:     "List revisions that touched a path, newest first",
		ArgsUsage: "<path>",
		Flags:     flags,
		Action:    historyAction,
	}
}

func historyAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("history requires a path argument")
	}
	path := c.Args().Get(0)

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		q := query.NewHistoryQuery(ctx.Reader, ctx.Gate, ctx.Config.Repository.HeadRef, ctx.Config.History.DefaultLimit)

		revision := c.String("revision")
		revisions, err := q.History(c.Context, path, revision, c.Int("limit"))
		if err != nil {
			return err
		}

		writer := output.NewHistoryReportWriter(ctx.Output.Format)
		return writer.Write(&output.HistoryReport{
			Path:      path,
			Revision:  revision,
			Revisions: revisions,
		}, ctx.Output)
	})
}
