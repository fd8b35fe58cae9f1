package changeset

// Family selects the revision display rule of a version-control system.
type Family string

const (
	FamilyGit     Family = "git"
	FamilyGeneric Family = "generic"
)

// gitRevisionLength is the display length of Git revision ids.
const gitRevisionLength = 6

// ParseFamily converts a config string to a Family, defaulting to Git.
func ParseFamily(s string) Family {
	if s == string(FamilyGeneric) {
		return FamilyGeneric
	}
	return FamilyGit
}

// DisplayLength returns how many characters of a revision are shown;
// 0 means the revision is shown in full.
func (f Family) DisplayLength() int {
	if f == FamilyGeneric {
		return 0
	}
	return gitRevisionLength
}

// Truncate returns the display form of revision for this family.
func (f Family) Truncate(revision string) string {
	return TruncateRevision(revision, f.DisplayLength())
}

// TruncateRevision returns the first n characters of revision.
// A non-positive n leaves the revision untouched.
func TruncateRevision(revision string, n int) string {
	if n <= 0 || len(revision) <= n {
		return revision
	}
	return revision[:n]
}
