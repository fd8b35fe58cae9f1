// Package changeset turns repository commits into persistable changeset
// records and classifies their file-level node changes.
package changeset

import "time"

// Kind is the classification of a node change.
type Kind string

const (
	KindAdded   Kind = "added"
	KindDeleted Kind = "deleted"
	KindUpdated Kind = "updated"
	KindCopied  Kind = "copied"
	KindMoved   Kind = "moved"
)

// Kinds lists every kind in the order NodeData.All emits them.
var Kinds = []Kind{KindAdded, KindCopied, KindUpdated, KindDeleted, KindMoved}

// ParseKind converts a stored kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// HasSource reports whether node changes of this kind carry a Source.
func (k Kind) HasSource() bool {
	return k == KindCopied || k == KindMoved
}

// Source identifies where a copied or moved node came from.
type Source struct {
	Path     string
	Revision string // first parent of the changeset's commit; "" for root commits
}

// NodeChange is one file-level change within a changeset.
// Source is non-nil exactly when Kind is copied or moved.
type NodeChange struct {
	Kind   Kind
	Path   string
	Source *Source
}

// Added returns an added node change.
func Added(path string) NodeChange { return NodeChange{Kind: KindAdded, Path: path} }

// Deleted returns a deleted node change.
func Deleted(path string) NodeChange { return NodeChange{Kind: KindDeleted, Path: path} }

// Updated returns an updated node change.
func Updated(path string) NodeChange { return NodeChange{Kind: KindUpdated, Path: path} }

// Copied returns a node change copied from fromPath at fromRevision.
func Copied(path, fromPath, fromRevision string) NodeChange {
	return NodeChange{Kind: KindCopied, Path: path, Source: &Source{Path: fromPath, Revision: fromRevision}}
}

// Moved returns a node change moved from fromPath at fromRevision.
func Moved(path, fromPath, fromRevision string) NodeChange {
	return NodeChange{Kind: KindMoved, Path: path, Source: &Source{Path: fromPath, Revision: fromRevision}}
}

// FromPath returns the source path, or "" for kinds without a source.
func (n NodeChange) FromPath() string {
	if n.Source == nil {
		return ""
	}
	return n.Source.Path
}

// FromRevision returns the source revision, or "" for kinds without a source.
func (n NodeChange) FromRevision() string {
	if n.Source == nil {
		return ""
	}
	return n.Source.Revision
}

// NodeData holds a commit's node changes partitioned by kind, each in the
// order the repository reported them.
type NodeData struct {
	Added   []NodeChange
	Copied  []NodeChange
	Updated []NodeChange
	Deleted []NodeChange
	Moved   []NodeChange
}

// Add appends n to the sequence of its kind.
func (d *NodeData) Add(n NodeChange) {
	switch n.Kind {
	case KindAdded:
		d.Added = append(d.Added, n)
	case KindCopied:
		d.Copied = append(d.Copied, n)
	case KindUpdated:
		d.Updated = append(d.Updated, n)
	case KindDeleted:
		d.Deleted = append(d.Deleted, n)
	case KindMoved:
		d.Moved = append(d.Moved, n)
	}
}

// All returns every node change, grouped by kind.
func (d NodeData) All() []NodeChange {
	out := make([]NodeChange, 0, d.Len())
	out = append(out, d.Added...)
	out = append(out, d.Copied...)
	out = append(out, d.Updated...)
	out = append(out, d.Deleted...)
	out = append(out, d.Moved...)
	return out
}

// Len returns the total number of node changes.
func (d NodeData) Len() int {
	return len(d.Added) + len(d.Copied) + len(d.Updated) + len(d.Deleted) + len(d.Moved)
}

// Draft is a changeset that has not been persisted yet.
type Draft struct {
	RepositoryID string
	Revision     string
	Author       string
	Log          string
	CreatedAt    time.Time

	// SkipAssociations suppresses per-record project association updates;
	// the sync engine refreshes associations once per batch instead.
	SkipAssociations bool
}

// Changeset is a persisted changeset record.
type Changeset struct {
	ID           int64
	RepositoryID string
	Revision     string
	Author       string
	Log          string
	CreatedAt    time.Time
	Nodes        NodeData
}
