package output

import (
	"encoding/csv"
	"strconv"
)

// CSVChangesetWriter writes changeset listings as CSV.
type CSVChangesetWriter struct{}

// Write outputs one row per changeset, or one row per node change when
// nodes are requested.
func (w *CSVChangesetWriter) Write(report *ChangesetReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	writer := csv.NewWriter(out)
	headers := []string{"Revision", "CreatedAt", "Author", "Message"}
	if report.WithNodes {
		headers = append(headers, "Kind", "Path", "FromPath", "FromRevision")
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, cs := range report.Changesets {
		row := []string{
			cs.Revision,
			cs.CreatedAt.Format(reportDateTimeLayout),
			cs.Author,
			firstLine(cs.Log),
		}
		if !report.WithNodes {
			if err := writer.Write(row); err != nil {
				return err
			}
			continue
		}
		if cs.Nodes.Len() == 0 {
			if err := writer.Write(append(row, "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, n := range cs.Nodes.All() {
			if err := writer.Write(append(row[:4:4], string(n.Kind), n.Path, n.FromPath(), n.FromRevision())); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVHistoryWriter writes path histories as CSV.
type CSVHistoryWriter struct{}

// Write outputs one row per revision with its position, newest first.
func (w *CSVHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"Rank", "Revision", "Path"}); err != nil {
		return err
	}
	for i, rev := range report.Revisions {
		if err := writer.Write([]string{strconv.Itoa(i + 1), rev, report.Path}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
