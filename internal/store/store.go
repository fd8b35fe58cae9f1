// Package store persists changesets and their node changes in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/masmgr/changesync-go/internal/changeset"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS changesets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	repository_id TEXT NOT NULL,
	revision TEXT NOT NULL,
	author TEXT NOT NULL,
	log TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE (repository_id, revision)
);
CREATE INDEX IF NOT EXISTS idx_changesets_created ON changesets(repository_id, created_at, id);
CREATE TABLE IF NOT EXISTS node_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	changeset_id INTEGER NOT NULL REFERENCES changesets(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL,
	path TEXT NOT NULL,
	from_path TEXT,
	from_revision TEXT
);
CREATE INDEX IF NOT EXISTS idx_node_changes_changeset ON node_changes(changeset_id, position);
CREATE TABLE IF NOT EXISTS sync_locks (
	repository_id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	acquired_at INTEGER NOT NULL
);
`

// RecordHook runs after a changeset is created, unless its draft asked to
// skip association side effects.
type RecordHook func(ctx context.Context, cs *changeset.Changeset) error

// Store is a SQLite-backed changeset store.
type Store struct {
	db         *sql.DB
	recordHook RecordHook
}

// Option configures a Store.
type Option func(*Store)

// WithRecordHook sets the per-record association hook.
func WithRecordHook(hook RecordHook) Option {
	return func(s *Store) { s.recordHook = hook }
}

// Open opens (creating if needed) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Latest returns the most recently created changeset of the repository,
// ordered by created_at with ties broken by insertion order. It returns
// nil when the repository has no changesets.
func (s *Store) Latest(ctx context.Context, repositoryID string) (*changeset.Changeset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, repository_id, revision, author, log, created_at
		FROM changesets
		WHERE repository_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, repositoryID)

	cs, err := scanChangeset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest changeset: %w", err)
	}
	return cs, nil
}

// HasRevision reports whether revision is already persisted for the repository.
func (s *Store) HasRevision(ctx context.Context, repositoryID, revision string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM changesets WHERE repository_id = ? AND revision = ?`,
		repositoryID, revision,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query revision %s: %w", revision, err)
	}
	return n > 0, nil
}

// Create persists a changeset and its node changes in one transaction.
func (s *Store) Create(ctx context.Context, draft *changeset.Draft, nodes changeset.NodeData) (*changeset.Changeset, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO changesets (repository_id, revision, author, log, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, draft.RepositoryID, draft.Revision, draft.Author, draft.Log, draft.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert changeset %s: %w", draft.Revision, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert changeset %s: %w", draft.Revision, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO node_changes (changeset_id, position, kind, path, from_path, from_revision)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare node change insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range nodes.All() {
		var fromPath, fromRevision sql.NullString
		if n.Source != nil {
			fromPath = sql.NullString{String: n.Source.Path, Valid: true}
			fromRevision = sql.NullString{String: n.Source.Revision, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, i, string(n.Kind), n.Path, fromPath, fromRevision); err != nil {
			return nil, fmt.Errorf("insert node change %s: %w", n.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit changeset %s: %w", draft.Revision, err)
	}

	cs := &changeset.Changeset{
		ID:           id,
		RepositoryID: draft.RepositoryID,
		Revision:     draft.Revision,
		Author:       draft.Author,
		Log:          draft.Log,
		CreatedAt:    time.Unix(0, draft.CreatedAt.UnixNano()),
		Nodes:        nodes,
	}

	if !draft.SkipAssociations && s.recordHook != nil {
		if err := s.recordHook(ctx, cs); err != nil {
			return cs, fmt.Errorf("record hook for %s: %w", draft.Revision, err)
		}
	}
	return cs, nil
}

// ListOptions controls List.
type ListOptions struct {
	Limit     int  // 0 means all
	WithNodes bool // load node changes
}

// List returns the repository's changesets ordered by created_at ascending.
func (s *Store) List(ctx context.Context, repositoryID string, opts ListOptions) ([]changeset.Changeset, error) {
	query := `
		SELECT id, repository_id, revision, author, log, created_at
		FROM changesets
		WHERE repository_id = ?
		ORDER BY created_at ASC, id ASC`
	args := []any{repositoryID}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list changesets: %w", err)
	}
	defer rows.Close()

	var out []changeset.Changeset
	for rows.Next() {
		cs, err := scanChangeset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan changeset: %w", err)
		}
		out = append(out, *cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changesets: %w", err)
	}

	if opts.WithNodes {
		for i := range out {
			nodes, err := s.nodes(ctx, out[i].ID)
			if err != nil {
				return nil, err
			}
			out[i].Nodes = nodes
		}
	}
	return out, nil
}

// Count returns the number of changesets stored for the repository.
func (s *Store) Count(ctx context.Context, repositoryID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM changesets WHERE repository_id = ?`, repositoryID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count changesets: %w", err)
	}
	return n, nil
}

func (s *Store) nodes(ctx context.Context, changesetID int64) (changeset.NodeData, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, path, from_path, from_revision
		FROM node_changes
		WHERE changeset_id = ?
		ORDER BY position
	`, changesetID)
	if err != nil {
		return changeset.NodeData{}, fmt.Errorf("query node changes: %w", err)
	}
	defer rows.Close()

	var data changeset.NodeData
	for rows.Next() {
		var kindName, path string
		var fromPath, fromRevision sql.NullString
		if err := rows.Scan(&kindName, &path, &fromPath, &fromRevision); err != nil {
			return changeset.NodeData{}, fmt.Errorf("scan node change: %w", err)
		}

		kind, ok := changeset.ParseKind(kindName)
		if !ok {
			return changeset.NodeData{}, fmt.Errorf("unknown node change kind %q", kindName)
		}
		switch kind {
		case changeset.KindCopied:
			data.Add(changeset.Copied(path, fromPath.String, fromRevision.String))
		case changeset.KindMoved:
			data.Add(changeset.Moved(path, fromPath.String, fromRevision.String))
		default:
			data.Add(changeset.NodeChange{Kind: kind, Path: path})
		}
	}
	return data, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChangeset(row rowScanner) (*changeset.Changeset, error) {
	var cs changeset.Changeset
	var createdAt int64
	if err := row.Scan(&cs.ID, &cs.RepositoryID, &cs.Revision, &cs.Author, &cs.Log, &createdAt); err != nil {
		return nil, err
	}
	cs.CreatedAt = time.Unix(0, createdAt)
	return &cs, nil
}
