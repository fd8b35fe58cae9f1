// Package query implements the read paths over a repository: normalized
// diffs and per-path revision history.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/masmgr/changesync-go/internal/git"
)

// Activity reports whether the repository may be queried.
type Activity interface {
	Active() bool
}

const gitFileHeader = "diff --git "

// Renderer produces unified diffs with revision-labelled file headers.
type Renderer struct {
	reader git.RepositoryReader
	gate   Activity
}

// NewRenderer creates a Renderer.
func NewRenderer(reader git.RepositoryReader, gate Activity) *Renderer {
	return &Renderer{reader: reader, gate: gate}
}

// Render returns the normalized diff of path between revA and revB, or ""
// when the repository is inactive or there is no textual diff.
func (r *Renderer) Render(ctx context.Context, path, revA, revB string) (string, error) {
	if !r.gate.Active() {
		return "", nil
	}

	raw, err := r.reader.DiffText(ctx, path, revA, revB)
	if err != nil {
		return "", fmt.Errorf("diff %s %s..%s: %w", path, revA, revB, err)
	}
	return Normalize(raw, revA, revB), nil
}

// Normalize rewrites the first file section of a raw diff so that its
// header reads
//
//	--- Revision <revA>
//	+++ Revision <revB>
//
// It returns "" when the section has no "--- " old file header, which
// covers empty, binary and mode-only diffs.
func Normalize(raw, revA, revB string) string {
	section := firstFileSection(raw)
	if !strings.HasPrefix(section, "--- ") {
		return ""
	}

	body := dropLine(section, "--- ")
	body = dropLine(body, "+++ ")
	return "--- Revision " + revA + "\n+++ Revision " + revB + "\n" + body
}

// firstFileSection returns the first file's diff starting at its old file
// header line, skipping git extended header lines.
func firstFileSection(raw string) string {
	section := raw
	if strings.HasPrefix(section, gitFileHeader) {
		section = section[len(gitFileHeader):]
		for {
			nl := strings.IndexByte(section, '\n')
			if nl == -1 {
				return ""
			}
			section = section[nl+1:]
			if strings.HasPrefix(section, gitFileHeader) {
				return ""
			}
			if section == "" || strings.HasPrefix(section, "--- ") || strings.HasPrefix(section, "@@") || strings.HasPrefix(section, "Binary ") {
				break
			}
		}
	}

	if next := strings.Index(section, "\n"+gitFileHeader); next != -1 {
		section = section[:next+1]
	}
	return section
}

// dropLine removes the first line of s when it starts with prefix.
func dropLine(s, prefix string) string {
	if !strings.HasPrefix(s, prefix) {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl == -1 {
		return ""
	}
	return s[nl+1:]
}
