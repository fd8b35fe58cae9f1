package changeset

import "github.com/masmgr/changesync-go/internal/git"

// Classify partitions the commit's raw file changes into node changes.
//
// Copies and moves are attributed to the commit's first parent; for a root
// commit the source revision is "". Status codes other than A, D, M, C and R
// (type changes, unmerged entries) are dropped.
func Classify(commit *git.Commit) NodeData {
	var data NodeData
	if commit == nil {
		return data
	}

	parent := commit.FirstParent()
	for _, ch := range commit.Changes {
		if n, ok := classifyChange(ch, parent); ok {
			data.Add(n)
		}
	}
	return data
}

func classifyChange(ch git.FileChange, parent string) (NodeChange, bool) {
	switch ch.Code() {
	case 'A':
		return Added(ch.Path), true
	case 'D':
		return Deleted(ch.Path), true
	case 'M':
		return Updated(ch.Path), true
	case 'C':
		return Copied(ch.Path, ch.OldPath, parent), true
	case 'R':
		return Moved(ch.Path, ch.OldPath, parent), true
	default:
		return NodeChange{}, false
	}
}
