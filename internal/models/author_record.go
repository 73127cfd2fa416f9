package models

// AuthorRole is the classification assigned to an author identity
type AuthorRole string

const (
	AuthorRoleDesignated AuthorRole = "designated"
	AuthorRoleBot        AuthorRole = "bot"
	AuthorRoleOther      AuthorRole = "other"
)

// AuthorRecord is one author line taken from the blame tool output
type AuthorRecord struct {
	Name    string
	LOC     int
	Commits int
	Files   int
}

// NewAuthorRecord builds a record with negative counters clamped to zero
func NewAuthorRecord(name string, loc, commits, files int) AuthorRecord {
	return AuthorRecord{
		Name:    name,
		LOC:     clampNonNegative(loc),
		Commits: clampNonNegative(commits),
		Files:   clampNonNegative(files),
	}
}

// Stats returns the record counters as an AuthorStats snapshot
func (r AuthorRecord) Stats() AuthorStats {
	return NewAuthorStats(r.LOC, r.Commits, r.Files)
}
