package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	colorTitle   = color.New(color.FgGreen, color.Underline)
	colorInfo    = color.New(color.FgYellow)
	colorWarn    = color.New(color.FgCyan)
	colorAdded   = color.New(color.FgGreen)
	colorDeleted = color.New(color.FgRed)
	colorHunk    = color.New(color.FgCyan)
)

// ConsoleSyncWriter writes sync reports to the console.
type ConsoleSyncWriter struct{}

// Write outputs the sync report to the console.
func (w *ConsoleSyncWriter) Write(report *SyncReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	res := report.Result
	colorTitle.Fprintln(out, "Changeset Sync")
	fmt.Fprintf(out, "Repository: %s\n", res.RepositoryID)

	if res.Inactive {
		colorWarn.Fprintln(out, "Repository inactive, nothing synchronized.")
		return nil
	}

	mode := "incremental"
	if res.FirstSync {
		mode = "full history"
	}
	fmt.Fprintf(out, "Mode: %s\n", mode)
	if n := len(res.Revisions); n > 0 {
		fmt.Fprintf(out, "Range: %s - %s (%d revisions)\n",
			options.Revisions.Truncate(res.Revisions[0]),
			options.Revisions.Truncate(res.Revisions[n-1]),
			n)
	}
	colorInfo.Fprintf(out, "Persisted %d changesets, skipped %d already stored.\n", res.Persisted, res.Skipped)
	return nil
}

// ConsoleChangesetWriter writes changeset listings to the console.
type ConsoleChangesetWriter struct{}

// Write outputs the changesets to the console, oldest first.
func (w *ConsoleChangesetWriter) Write(report *ChangesetReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	colorTitle.Fprintln(out, "Changesets")
	fmt.Fprintf(out, "Repository: %s\n", report.RepositoryID)
	fmt.Fprintf(out, "Total changesets: %d\n", report.total())
	if len(report.Changesets) < report.total() {
		fmt.Fprintf(out, "Showing: %d\n", len(report.Changesets))
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Revision\tDate\tAuthor\tMessage")
	for _, cs := range report.Changesets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			options.Revisions.Truncate(cs.Revision),
			cs.CreatedAt.Format(reportDateTimeLayout),
			cs.Author,
			firstLine(cs.Log),
		)
		if !report.WithNodes {
			continue
		}
		for _, n := range cs.Nodes.All() {
			line := fmt.Sprintf("  %s %s", n.Kind, n.Path)
			if n.Source != nil {
				line += fmt.Sprintf(" (from %s@%s)", n.Source.Path, options.Revisions.Truncate(n.Source.Revision))
			}
			fmt.Fprintf(tw, "%s\t\t\t\n", line)
		}
	}
	return tw.Flush()
}

// ConsoleHistoryWriter writes path histories to the console.
type ConsoleHistoryWriter struct{}

// Write outputs one full revision id per line, newest first.
func (w *ConsoleHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if len(report.Revisions) == 0 {
		colorWarn.Fprintf(out, "No revisions found for %s.\n", report.Path)
		return nil
	}
	for _, rev := range report.Revisions {
		fmt.Fprintln(out, rev)
	}
	return nil
}

// ConsoleDiffWriter writes diffs to the console with colored lines.
type ConsoleDiffWriter struct{}

// Write outputs the diff text.
func (w *ConsoleDiffWriter) Write(report *DiffReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if report.Diff == "" {
		colorWarn.Fprintf(out, "No differences for %s between %s and %s.\n",
			report.Path,
			options.Revisions.Truncate(report.RevisionA),
			options.Revisions.Truncate(report.RevisionB))
		return nil
	}

	for _, line := range strings.SplitAfter(report.Diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
			colorInfo.Fprint(out, line)
		case strings.HasPrefix(line, "@@"):
			colorHunk.Fprint(out, line)
		case strings.HasPrefix(line, "+"):
			colorAdded.Fprint(out, line)
		case strings.HasPrefix(line, "-"):
			colorDeleted.Fprint(out, line)
		default:
			fmt.Fprint(out, line)
		}
	}
	return nil
}
