package output

import (
	"encoding/json"
	"time"
)

// JSONSyncWriter writes sync reports as JSON.
type JSONSyncWriter struct{}

// JSONSyncReport is the JSON output structure for a sync run.
type JSONSyncReport struct {
	RunID       string   `json:"runId"`
	Repository  string   `json:"repository"`
	GeneratedAt string   `json:"generatedAt"`
	Inactive    bool     `json:"inactive"`
	FirstSync   bool     `json:"firstSync"`
	Revisions   []string `json:"revisions"`
	Persisted   int      `json:"persisted"`
	Skipped     int      `json:"skipped"`
}

// Write outputs the sync report as JSON.
func (w *JSONSyncWriter) Write(report *SyncReport, options OutputOptions) error {
	res := report.Result
	revisions := res.Revisions
	if revisions == nil {
		revisions = []string{}
	}
	return writeJSON(options, JSONSyncReport{
		RunID:       res.RunID,
		Repository:  res.RepositoryID,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Inactive:    res.Inactive,
		FirstSync:   res.FirstSync,
		Revisions:   revisions,
		Persisted:   res.Persisted,
		Skipped:     res.Skipped,
	})
}

// JSONChangesetWriter writes changeset listings as JSON.
type JSONChangesetWriter struct{}

// JSONChangesetReport is the JSON output structure for changeset listings.
type JSONChangesetReport struct {
	Repository      string          `json:"repository"`
	TotalChangesets int             `json:"totalChangesets"`
	Items           []JSONChangeset `json:"items"`
}

// JSONChangeset is the JSON output structure for a single changeset.
type JSONChangeset struct {
	Revision      string           `json:"revision"`
	ShortRevision string           `json:"shortRevision"`
	Author        string           `json:"author"`
	Log           string           `json:"log"`
	CreatedAt     string           `json:"createdAt"`
	Nodes         []JSONNodeChange `json:"nodes,omitempty"`
}

// JSONNodeChange is the JSON output structure for a node change.
type JSONNodeChange struct {
	Kind         string `json:"kind"`
	Path         string `json:"path"`
	FromPath     string `json:"fromPath,omitempty"`
	FromRevision string `json:"fromRevision,omitempty"`
}

// Write outputs the changesets as JSON.
func (w *JSONChangesetWriter) Write(report *ChangesetReport, options OutputOptions) error {
	items := make([]JSONChangeset, 0, len(report.Changesets))
	for _, cs := range report.Changesets {
		item := JSONChangeset{
			Revision:      cs.Revision,
			ShortRevision: options.Revisions.Truncate(cs.Revision),
			Author:        cs.Author,
			Log:           cs.Log,
			CreatedAt:     cs.CreatedAt.UTC().Format(time.RFC3339),
		}
		if report.WithNodes {
			for _, n := range cs.Nodes.All() {
				item.Nodes = append(item.Nodes, JSONNodeChange{
					Kind:         string(n.Kind),
					Path:         n.Path,
					FromPath:     n.FromPath(),
					FromRevision: n.FromRevision(),
				})
			}
		}
		items = append(items, item)
	}

	return writeJSON(options, JSONChangesetReport{
		Repository:      report.RepositoryID,
		TotalChangesets: report.total(),
		Items:           items,
	})
}

// JSONHistoryWriter writes path histories as JSON.
type JSONHistoryWriter struct{}

// JSONHistoryReport is the JSON output structure for a path history.
type JSONHistoryReport struct {
	Path      string   `json:"path"`
	Revision  string   `json:"revision,omitempty"`
	Revisions []string `json:"revisions"`
}

// Write outputs the history as JSON.
func (w *JSONHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	revisions := report.Revisions
	if revisions == nil {
		revisions = []string{}
	}
	return writeJSON(options, JSONHistoryReport{
		Path:      report.Path,
		Revision:  report.Revision,
		Revisions: revisions,
	})
}

// JSONDiffWriter writes diffs as JSON.
type JSONDiffWriter struct{}

// JSONDiffReport is the JSON output structure for a diff.
type JSONDiffReport struct {
	Path      string `json:"path"`
	RevisionA string `json:"revisionA"`
	RevisionB string `json:"revisionB"`
	Diff      string `json:"diff"`
}

// Write outputs the diff as JSON.
func (w *JSONDiffWriter) Write(report *DiffReport, options OutputOptions) error {
	return writeJSON(options, JSONDiffReport{
		Path:      report.Path,
		RevisionA: report.RevisionA,
		RevisionB: report.RevisionB,
		Diff:      report.Diff,
	})
}

func writeJSON(options OutputOptions, v any) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
