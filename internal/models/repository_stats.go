package models

import (
	"errors"
	"fmt"
)

// RepositoryStats is the summary of one repository for one pipeline run
type RepositoryStats struct {
	DisplayName           string               `json:"display_name"`
	DesignatedAuthorStats AuthorStats          `json:"designated_author_stats"`
	RepositoryTotals      AuthorStats          `json:"repository_totals"`
	LanguageStats         LanguageStats        `json:"language_stats"`
	LineCounterStats      map[string]LineCount `json:"line_counter_stats,omitempty"`
}

// NewRepositoryStats creates empty stats for a repository
func NewRepositoryStats(displayName string) *RepositoryStats {
	return &RepositoryStats{
		DisplayName:   displayName,
		LanguageStats: make(LanguageStats),
	}
}

// Clone returns a deep copy so later stages never share maps with earlier ones
func (rs *RepositoryStats) Clone() *RepositoryStats {
	clone := *rs
	clone.LanguageStats = rs.LanguageStats.Clone()
	if rs.LineCounterStats != nil {
		clone.LineCounterStats = make(map[string]LineCount, len(rs.LineCounterStats))
		for category, count := range rs.LineCounterStats {
			clone.LineCounterStats[category] = count
		}
	}
	return &clone
}

// Validate checks the structural invariants of the stats
func (rs *RepositoryStats) Validate() error {
	if rs.DisplayName == "" {
		return errors.New("display name is required")
	}
	if !rs.RepositoryTotals.Covers(rs.DesignatedAuthorStats) {
		return fmt.Errorf("designated author stats %+v exceed repository totals %+v",
			rs.DesignatedAuthorStats, rs.RepositoryTotals)
	}
	return nil
}
