package output

import (
	"io"
	"time"

	"github.com/masmgr/changesync-go/internal/changeset"
	"github.com/masmgr/changesync-go/internal/syncer"
)

// Compile-time interface conformance checks.
var (
	_ SyncReportWriter = (*ConsoleSyncWriter)(nil)
	_ SyncReportWriter = (*JSONSyncWriter)(nil)

	_ ChangesetReportWriter = (*ConsoleChangesetWriter)(nil)
	_ ChangesetReportWriter = (*JSONChangesetWriter)(nil)
	_ ChangesetReportWriter = (*CSVChangesetWriter)(nil)

	_ HistoryReportWriter = (*ConsoleHistoryWriter)(nil)
	_ HistoryReportWriter = (*JSONHistoryWriter)(nil)
	_ HistoryReportWriter = (*CSVHistoryWriter)(nil)

	_ DiffReportWriter = (*ConsoleDiffWriter)(nil)
	_ DiffReportWriter = (*JSONDiffWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	OutputPath string
	Writer     io.Writer        // overrides OutputPath and stdout when set
	Revisions  changeset.Family // display rule for revision ids
}

// SyncReport holds the outcome of one sync run.
type SyncReport struct {
	Result      syncer.Result
	GeneratedAt time.Time
}

// ChangesetReport holds persisted changesets of a repository.
type ChangesetReport struct {
	RepositoryID string
	Total        int // stored changesets, which may exceed len(Changesets) under a limit
	Changesets   []changeset.Changeset
	WithNodes    bool
}

func (r *ChangesetReport) total() int {
	if r.Total < len(r.Changesets) {
		return len(r.Changesets)
	}
	return r.Total
}

// HistoryReport holds the revisions that touched a path.
type HistoryReport struct {
	Path      string
	Revision  string
	Revisions []string
}

// DiffReport holds one normalized diff.
type DiffReport struct {
	Path      string
	RevisionA string
	RevisionB string
	Diff      string
}

// SyncReportWriter writes sync reports.
type SyncReportWriter interface {
	Write(report *SyncReport, options OutputOptions) error
}

// ChangesetReportWriter writes changeset listings.
type ChangesetReportWriter interface {
	Write(report *ChangesetReport, options OutputOptions) error
}

// HistoryReportWriter writes path histories.
type HistoryReportWriter interface {
	Write(report *HistoryReport, options OutputOptions) error
}

// DiffReportWriter writes diffs.
type DiffReportWriter interface {
	Write(report *DiffReport, options OutputOptions) error
}

// NewSyncReportWriter creates a writer for the given format.
func NewSyncReportWriter(format OutputFormat) SyncReportWriter {
	if format == FormatJSON {
		return &JSONSyncWriter{}
	}
	return &ConsoleSyncWriter{}
}

// NewChangesetReportWriter creates a writer for the given format.
func NewChangesetReportWriter(format OutputFormat) ChangesetReportWriter {
	switch format {
	case FormatJSON:
		return &JSONChangesetWriter{}
	case FormatCSV:
		return &CSVChangesetWriter{}
	default:
		return &ConsoleChangesetWriter{}
	}
}

// NewHistoryReportWriter creates a writer for the given format.
func NewHistoryReportWriter(format OutputFormat) HistoryReportWriter {
	switch format {
	case FormatJSON:
		return &JSONHistoryWriter{}
	case FormatCSV:
		return &CSVHistoryWriter{}
	default:
		return &ConsoleHistoryWriter{}
	}
}

// NewDiffReportWriter creates a writer for the given format.
func NewDiffReportWriter(format OutputFormat) DiffReportWriter {
	if format == FormatJSON {
		return &JSONDiffWriter{}
	}
	return &ConsoleDiffWriter{}
}
