package git

import (
	"errors"
	"time"
)

var (
	// ErrRevisionNotFound is returned when a revision id or ref cannot be resolved.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrUnavailable wraps failures of the underlying repository access.
	ErrUnavailable = errors.New("repository unavailable")
)

// Commit represents a single commit as seen by the sync pipeline.
// Changes is only populated by RepositoryReader.Commit.
type Commit struct {
	ID        string
	Parents   []string
	Author    Signature
	Committer Signature
	Message   string
	Changes   []FileChange
}

// FirstParent returns the id of the first parent, or "" for a root commit.
func (c Commit) FirstParent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// Signature represents commit author or committer information.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// FileChange is one raw file-level change reported against the first parent.
// Status is the git status letter, optionally followed by a similarity score
// ("A", "M", "D", "R100", "C075", "T").
type FileChange struct {
	Status  string
	Path    string // new-side path; equals OldPath for deletions
	OldPath string // old-side path; empty for additions
}

// Code returns the status letter without the similarity score.
func (f FileChange) Code() byte {
	if f.Status == "" {
		return 0
	}
	return f.Status[0]
}

// Backend selects how file changes and diff text are produced.
type Backend string

const (
	BackendNative Backend = "native"
	BackendCLI    Backend = "cli"
)

// ParseBackend converts a config string to a Backend, defaulting to native.
func ParseBackend(s string) Backend {
	switch s {
	case "cli", "git":
		return BackendCLI
	default:
		return BackendNative
	}
}

// ReadOptions configures the history reader.
type ReadOptions struct {
	RepoPath string
	Backend  Backend
	Exclude  []string // Glob patterns dropped from reported file changes
}
