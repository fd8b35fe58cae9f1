package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type gitRawEntry struct {
	srcMode filemode.FileMode
	dstMode filemode.FileMode
	status  string // e.g. "M", "A", "D", "R100", "C075"
	path    string // destination path (or path for non-renames)
	oldPath string // source path for renames, copies and deletions
}

// cliChanges lists the commit's changes against its first parent with
// `git diff-tree`, which also detects copies.
func (r *HistoryReader) cliChanges(ctx context.Context, c *object.Commit) ([]FileChange, error) {
	args := []string{
		"diff-tree",
		"--no-commit-id",
		"--no-color",
		"-r", "-z", "--raw",
		"-M", "-C",
	}
	if c.NumParents() == 0 {
		args = append(args, "--root", c.Hash.String())
	} else {
		args = append(args, c.ParentHashes[0].String(), c.Hash.String())
	}

	out, err := r.runGit(ctx, args...)
	if err != nil {
		return nil, err
	}

	entries, _, err := parseGitRawEntries(out)
	if err != nil {
		return nil, err
	}

	changes := make([]FileChange, 0, len(entries))
	for _, e := range entries {
		if !e.srcMode.IsFile() && !e.dstMode.IsFile() {
			continue
		}
		if e.path == "" {
			continue
		}
		changes = append(changes, FileChange{
			Status:  e.status,
			Path:    e.path,
			OldPath: e.oldPath,
		})
	}
	return changes, nil
}

func (r *HistoryReader) cliDiffText(ctx context.Context, path, revA, revB string) (string, error) {
	a, err := r.resolve(revA)
	if err != nil {
		return "", err
	}
	b, err := r.resolve(revB)
	if err != nil {
		return "", err
	}

	out, err := r.runGit(ctx, "diff", "--no-color", "--no-ext-diff",
		a.Hash.String(), b.Hash.String(), "--", normalizePath(path))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (r *HistoryReader) runGit(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"-C", r.opts.RepoPath}, args...)
	out, err := exec.CommandContext(ctx, "git", full...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: git %s failed: %w: %s", ErrUnavailable, args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%w: git %s failed: %w", ErrUnavailable, args[0], err)
	}
	return out, nil
}

// parseGitRawEntries parses NUL-delimited `--raw -z` output. Deletions get
// oldPath set to the deleted path so both sides are always populated.
func parseGitRawEntries(body []byte) ([]gitRawEntry, int, error) {
	i := 0
	for i < len(body) && (body[i] == '\n' || body[i] == '\r') {
		i++
	}

	entries := make([]gitRawEntry, 0, 32)

	for i < len(body) && body[i] == ':' {
		meta, ok := readUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing NUL)")
		}

		fields := strings.Fields(string(meta))
		if len(fields) < 5 {
			return nil, 0, fmt.Errorf("unexpected git --raw meta: %q", string(meta))
		}

		srcMode, err := parseGitFileMode(strings.TrimPrefix(fields[0], ":"))
		if err != nil {
			return nil, 0, err
		}
		dstMode, err := parseGitFileMode(fields[1])
		if err != nil {
			return nil, 0, err
		}

		status := fields[len(fields)-1]

		first, ok := readStringUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing path)")
		}

		entry := gitRawEntry{srcMode: srcMode, dstMode: dstMode, status: status, path: first}
		switch status[0] {
		case 'R', 'C':
			second, ok := readStringUntilNUL(body, &i)
			if !ok {
				return nil, 0, fmt.Errorf("unexpected git --raw format (missing %c destination path)", status[0])
			}
			entry.oldPath = first
			entry.path = second
		case 'A':
		default:
			entry.oldPath = first
		}

		entries = append(entries, entry)

		for i < len(body) && body[i] == '\n' {
			i++
		}
	}

	return entries, i, nil
}

func parseGitFileMode(s string) (filemode.FileMode, error) {
	if s == "" {
		return filemode.Empty, nil
	}
	// Modes are printed as octal (e.g. 100644, 120000, 160000, 000000).
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return filemode.Empty, fmt.Errorf("parse file mode %q: %w", s, err)
	}
	return filemode.FileMode(v), nil
}

func readUntilNUL(b []byte, i *int) ([]byte, bool) {
	if *i >= len(b) {
		return nil, false
	}
	j := bytes.IndexByte(b[*i:], 0)
	if j == -1 {
		return nil, false
	}
	start := *i
	end := *i + j
	*i = end + 1
	return b[start:end], true
}

func readStringUntilNUL(b []byte, i *int) (string, bool) {
	raw, ok := readUntilNUL(b, i)
	if !ok {
		return "", false
	}
	return string(raw), true
}
