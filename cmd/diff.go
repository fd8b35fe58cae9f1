package cmd

import (
	"fmt"

	"github.com/masmgr/changesync-go/internal/output"
	"github.com/masmgr/changesync-go/internal/query"
	"github.com/urfave/cli/v2"
)

// DiffCmd returns the diff command.
func DiffCmd() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Aliases:   []string{"d"},
		Usage:     "Show the unified diff of a path between two revisions",
		ArgsUsage: "<path> <revision-a> <revision-b>",
		Flags:     commonFlags(),
		Action:    diffAction,
	}
}

func diffAction(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("diff requires <path> <revision-a> <revision-b>")
	}
	path, revA, revB := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		renderer := query.NewRenderer(ctx.Reader, ctx.Gate)
		text, err := renderer.Render(c.Context, path, revA, revB)
		if err != nil {
			return err
		}

		writer := output.NewDiffReportWriter(ctx.Output.Format)
		return writer.Write(&output.DiffReport{
			Path:      path,
			RevisionA: revA,
			RevisionB: revB,
			Diff:      text,
		}, ctx.Output)
	})
}
