package models

// AuthorStats is a snapshot of lines of code, commits and files. Values are
// combined with Add, which returns a new snapshot.
type AuthorStats struct {
	LOC     int `json:"loc"`
	Commits int `json:"commits"`
	Files   int `json:"files"`
}

// NewAuthorStats builds a snapshot, clamping negative values to zero
func NewAuthorStats(loc, commits, files int) AuthorStats {
	return AuthorStats{
		LOC:     clampNonNegative(loc),
		Commits: clampNonNegative(commits),
		Files:   clampNonNegative(files),
	}
}

// Add returns the pairwise sum of s and other
func (s AuthorStats) Add(other AuthorStats) AuthorStats {
	return AuthorStats{
		LOC:     s.LOC + other.LOC,
		Commits: s.Commits + other.Commits,
		Files:   s.Files + other.Files,
	}
}

// IsZero reports whether every counter is zero
func (s AuthorStats) IsZero() bool {
	return s.LOC == 0 && s.Commits == 0 && s.Files == 0
}

// Covers reports whether s is at least subset on every counter
func (s AuthorStats) Covers(subset AuthorStats) bool {
	return s.LOC >= subset.LOC && s.Commits >= subset.Commits && s.Files >= subset.Files
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
