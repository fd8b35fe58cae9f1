package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	wt   *gogit.Worktree
	when time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt, when: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *testRepo) write(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.t.Fatalf("Add: %v", err)
	}
}

func (r *testRepo) remove(rel string) {
	r.t.Helper()
	if _, err := r.wt.Remove(rel); err != nil {
		r.t.Fatalf("Remove: %v", err)
	}
}

// commit records the index on top of parents, or HEAD when none are given.
func (r *testRepo) commit(msg string, parents ...string) string {
	r.t.Helper()
	r.when = r.when.Add(time.Hour)
	opts := &gogit.CommitOptions{
		Author:    &object.Signature{Name: "Author", Email: "author@example.com", When: r.when},
		Committer: &object.Signature{Name: "Committer", Email: "committer@example.com", When: r.when},
	}
	for _, p := range parents {
		opts.Parents = append(opts.Parents, plumbing.NewHash(p))
	}
	hash, err := r.wt.Commit(msg, opts)
	if err != nil {
		r.t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func (r *testRepo) reader(opts ReadOptions) *HistoryReader {
	r.t.Helper()
	opts.RepoPath = r.dir
	reader, err := NewHistoryReader(opts)
	if err != nil {
		r.t.Fatalf("NewHistoryReader: %v", err)
	}
	return reader
}

func changeMap(changes []FileChange) map[string]FileChange {
	m := make(map[string]FileChange, len(changes))
	for _, ch := range changes {
		m[ch.Path] = ch
	}
	return m
}

func ids(commits []Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.ID
	}
	return out
}

func TestNewHistoryReader_Errors(t *testing.T) {
	_, err := NewHistoryReader(ReadOptions{RepoPath: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	r := newTestRepo(t)
	if _, err := NewHistoryReader(ReadOptions{RepoPath: r.dir, Exclude: []string{"[bad"}}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestHistoryReader_Commit_Changes(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.write("b.txt", "two\n")
	r.write("c.txt", "three\nlines\nof content\n")
	root := r.commit("root")

	r.write("a.txt", "one\nmore\n")
	r.remove("b.txt")
	r.remove("c.txt")
	r.write("d.txt", "three\nlines\nof content\n")
	second := r.commit("second")

	reader := r.reader(ReadOptions{})
	ctx := context.Background()

	c, err := reader.Commit(ctx, root)
	if err != nil {
		t.Fatalf("Commit(root): %v", err)
	}
	if len(c.Parents) != 0 || c.FirstParent() != "" {
		t.Fatalf("root parents = %v", c.Parents)
	}
	if len(c.Changes) != 3 {
		t.Fatalf("root changes = %v, want 3 additions", c.Changes)
	}
	for _, ch := range c.Changes {
		if ch.Code() != 'A' || ch.OldPath != "" {
			t.Errorf("root change = %#v, want addition", ch)
		}
	}

	c, err = reader.Commit(ctx, second)
	if err != nil {
		t.Fatalf("Commit(second): %v", err)
	}
	if c.FirstParent() != root {
		t.Fatalf("FirstParent = %s, want %s", c.FirstParent(), root)
	}
	if c.Author.Name != "Author" || c.Committer.Name != "Committer" || strings.TrimSpace(c.Message) != "second" {
		t.Fatalf("commit metadata = %+v", c)
	}

	got := changeMap(c.Changes)
	if len(got) != 3 {
		t.Fatalf("changes = %v, want 3", c.Changes)
	}
	if ch := got["a.txt"]; ch.Code() != 'M' {
		t.Errorf("a.txt = %#v, want modify", ch)
	}
	if ch := got["b.txt"]; ch.Code() != 'D' || ch.OldPath != "b.txt" {
		t.Errorf("b.txt = %#v, want delete", ch)
	}
	if ch := got["d.txt"]; ch.Code() != 'R' || ch.OldPath != "c.txt" {
		t.Errorf("d.txt = %#v, want rename from c.txt", ch)
	}
}

func TestHistoryReader_Commit_Exclude(t *testing.T) {
	r := newTestRepo(t)
	r.write("main.go", "package main\n")
	r.write("vendor/lib/x.go", "package lib\n")
	head := r.commit("root")

	reader := r.reader(ReadOptions{Exclude: []string{"vendor/**"}})
	c, err := reader.Commit(context.Background(), head)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(c.Changes) != 1 || c.Changes[0].Path != "main.go" {
		t.Fatalf("changes = %v, want only main.go", c.Changes)
	}
}

func TestHistoryReader_RevisionNotFound(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.commit("root")
	reader := r.reader(ReadOptions{})
	ctx := context.Background()

	if _, err := reader.Commit(ctx, "0123456789abcdef0123456789abcdef01234567"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("Commit err = %v, want ErrRevisionNotFound", err)
	}
	if _, err := reader.Commits(ctx, "no-such-branch", 1); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("Commits err = %v, want ErrRevisionNotFound", err)
	}
	if _, err := reader.Commit(ctx, "  "); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("Commit(blank) err = %v, want ErrRevisionNotFound", err)
	}
}

func TestHistoryReader_CommitsAndBetween_MergeOrder(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "1\n")
	c1 := r.commit("c1")
	r.write("a.txt", "2\n")
	c2 := r.commit("c2", c1)
	r.write("side.txt", "s\n")
	side := r.commit("side", c1)
	merge := r.commit("merge", c2, side)

	reader := r.reader(ReadOptions{})
	ctx := context.Background()

	all, err := reader.Commits(ctx, merge, 0)
	if err != nil {
		t.Fatalf("Commits: %v", err)
	}
	if got, want := strings.Join(ids(all), ","), strings.Join([]string{merge, side, c2, c1}, ","); got != want {
		t.Fatalf("Commits = %s, want %s", got, want)
	}

	tip, err := reader.Commits(ctx, "HEAD", 1)
	if err != nil {
		t.Fatalf("Commits(HEAD, 1): %v", err)
	}
	if len(tip) != 1 || tip[0].ID != merge {
		t.Fatalf("HEAD tip = %v, want %s", ids(tip), merge)
	}

	between, err := reader.CommitsBetween(ctx, c1, merge)
	if err != nil {
		t.Fatalf("CommitsBetween: %v", err)
	}
	if got, want := strings.Join(ids(between), ","), strings.Join([]string{c2, side, merge}, ","); got != want {
		t.Fatalf("CommitsBetween = %s, want %s", got, want)
	}

	none, err := reader.CommitsBetween(ctx, merge, merge)
	if err != nil {
		t.Fatalf("CommitsBetween(same): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("CommitsBetween(same) = %v, want empty", ids(none))
	}
}

func TestHistoryReader_Log_PathAndLimit(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "1\n")
	c1 := r.commit("c1")
	r.write("dir/b.txt", "b\n")
	c2 := r.commit("c2")
	r.write("a.txt", "2\n")
	c3 := r.commit("c3")

	reader := r.reader(ReadOptions{})
	ctx := context.Background()

	got, err := reader.Log(ctx, "HEAD", "a.txt", 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if strings.Join(ids(got), ",") != c3+","+c1 {
		t.Fatalf("Log(a.txt) = %v, want [%s %s]", ids(got), c3, c1)
	}

	got, err = reader.Log(ctx, "HEAD", "dir", 0)
	if err != nil {
		t.Fatalf("Log(dir): %v", err)
	}
	if len(got) != 1 || got[0].ID != c2 {
		t.Fatalf("Log(dir) = %v, want [%s]", ids(got), c2)
	}

	got, err = reader.Log(ctx, "HEAD", "", 2)
	if err != nil {
		t.Fatalf("Log(limit): %v", err)
	}
	if strings.Join(ids(got), ",") != c3+","+c2 {
		t.Fatalf("Log(limit 2) = %v, want [%s %s]", ids(got), c3, c2)
	}

	got, err = reader.Log(ctx, c2, "a.txt", 0)
	if err != nil {
		t.Fatalf("Log(from c2): %v", err)
	}
	if len(got) != 1 || got[0].ID != c1 {
		t.Fatalf("Log(from c2) = %v, want [%s]", ids(got), c1)
	}
}

func TestHistoryReader_DiffText(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.write("b.txt", "untouched\n")
	c1 := r.commit("c1")
	r.write("a.txt", "one\nmore\n")
	c2 := r.commit("c2")

	reader := r.reader(ReadOptions{})
	ctx := context.Background()

	text, err := reader.DiffText(ctx, "a.txt", c1, c2)
	if err != nil {
		t.Fatalf("DiffText: %v", err)
	}
	if !strings.Contains(text, "--- a/a.txt\n+++ b/a.txt\n") || !strings.Contains(text, "+more") {
		t.Fatalf("DiffText = %q, want a.txt patch", text)
	}

	text, err = reader.DiffText(ctx, "b.txt", c1, c2)
	if err != nil {
		t.Fatalf("DiffText(b.txt): %v", err)
	}
	if text != "" {
		t.Fatalf("DiffText(b.txt) = %q, want empty", text)
	}
}

func TestHistoryReader_CLIBackend(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.write("c.txt", "three\nlines\nof content\n")
	root := r.commit("root")
	r.write("a.txt", "one\nmore\n")
	r.remove("c.txt")
	r.write("d.txt", "three\nlines\nof content\n")
	second := r.commit("second")

	reader := r.reader(ReadOptions{Backend: BackendCLI})
	ctx := context.Background()

	c, err := reader.Commit(ctx, root)
	if err != nil {
		t.Fatalf("Commit(root): %v", err)
	}
	if len(c.Changes) != 2 {
		t.Fatalf("root changes = %v, want 2", c.Changes)
	}

	c, err = reader.Commit(ctx, second)
	if err != nil {
		t.Fatalf("Commit(second): %v", err)
	}
	got := changeMap(c.Changes)
	if ch := got["d.txt"]; ch.Code() != 'R' || ch.OldPath != "c.txt" {
		t.Errorf("d.txt = %#v, want rename from c.txt", ch)
	}
	if ch := got["a.txt"]; ch.Code() != 'M' {
		t.Errorf("a.txt = %#v, want modify", ch)
	}

	text, err := reader.DiffText(ctx, "a.txt", root, second)
	if err != nil {
		t.Fatalf("DiffText: %v", err)
	}
	if !strings.HasPrefix(text, "diff --git a/a.txt b/a.txt\n") || !strings.Contains(text, "+more") {
		t.Fatalf("DiffText = %q", text)
	}
}
