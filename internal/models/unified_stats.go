package models

// UnifiedStats is the cross-repository rollup of one pipeline run
type UnifiedStats struct {
	TotalLOC                int                         `json:"total_loc"`
	TotalCommits            int                         `json:"total_commits"`
	TotalFiles              int                         `json:"total_files"`
	RepositoriesProcessed   int                         `json:"repositories_processed"`
	DesignatedAuthorUnified AuthorStats                 `json:"designated_author_unified"`
	RepositoryBreakdown     map[string]*RepositoryStats `json:"repository_breakdown"`
	UnifiedLanguageStats    LanguageStats               `json:"unified_language_stats"`
	LanguageDivergence      LanguageDivergence          `json:"language_divergence"`
}

// LanguageDivergence measures how far the language rollup is from the
// author-based totals. Excluded categories and unclassified files make
// LanguageLOC smaller than AuthorLOC.
type LanguageDivergence struct {
	AuthorLOC     int     `json:"author_loc"`
	LanguageLOC   int     `json:"language_loc"`
	DivergenceLOC int     `json:"divergence_loc"`
	Ratio         float64 `json:"ratio"`
}

// NewUnifiedStats returns empty unified stats
func NewUnifiedStats() *UnifiedStats {
	return &UnifiedStats{
		RepositoryBreakdown:  make(map[string]*RepositoryStats),
		UnifiedLanguageStats: make(LanguageStats),
	}
}

// Totals returns the global totals as an AuthorStats snapshot
func (u *UnifiedStats) Totals() AuthorStats {
	return AuthorStats{LOC: u.TotalLOC, Commits: u.TotalCommits, Files: u.TotalFiles}
}

// BreakdownTotals sums repository totals over the breakdown map
func (u *UnifiedStats) BreakdownTotals() AuthorStats {
	var total AuthorStats
	for _, repo := range u.RepositoryBreakdown {
		total = total.Add(repo.RepositoryTotals)
	}
	return total
}

// ComputeLanguageDivergence compares the language rollup with the totals
func ComputeLanguageDivergence(authorLOC int, languages LanguageStats) LanguageDivergence {
	languageLOC := languages.Total().LOC
	divergence := LanguageDivergence{
		AuthorLOC:     authorLOC,
		LanguageLOC:   languageLOC,
		DivergenceLOC: authorLOC - languageLOC,
	}
	if authorLOC > 0 {
		divergence.Ratio = float64(divergence.DivergenceLOC) / float64(authorLOC)
	}
	return divergence
}

// Averages is the per-repository scale summary of a run
type Averages struct {
	LOCPerRepository     float64 `json:"loc_per_repository"`
	CommitsPerRepository float64 `json:"commits_per_repository"`
	FilesPerRepository   float64 `json:"files_per_repository"`
	LOCPerFile           float64 `json:"loc_per_file"`
}

// Averages computes the scale summary, zero where a denominator is zero
func (u *UnifiedStats) Averages() Averages {
	var avg Averages
	if u.RepositoriesProcessed > 0 {
		n := float64(u.RepositoriesProcessed)
		avg.LOCPerRepository = float64(u.TotalLOC) / n
		avg.CommitsPerRepository = float64(u.TotalCommits) / n
		avg.FilesPerRepository = float64(u.TotalFiles) / n
	}
	if u.TotalFiles > 0 {
		avg.LOCPerFile = float64(u.TotalLOC) / float64(u.TotalFiles)
	}
	return avg
}
