package services

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

const (
	StatsFileSuffix  = "_stats.json"
	UnifiedStatsFile = "unified_stats.json"

	SheetSummary      = "Summary"
	SheetRepositories = "Repositories"
	SheetLanguages    = "Languages"
)

// UnifiedReport is the unified_stats.json document
type UnifiedReport struct {
	*models.UnifiedStats
	Averages         models.Averages `json:"averages"`
	ValidationErrors []string        `json:"validation_errors"`
}

// ExportService writes run results as JSON files and XLSX workbooks
type ExportService struct {
	cross *CrossRepoAggregator
}

// NewExportService creates a new export service
func NewExportService(cross *CrossRepoAggregator) *ExportService {
	return &ExportService{cross: cross}
}

// StatsFileName returns the per-repository file name for displayName
func StatsFileName(displayName string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(strings.TrimSpace(displayName))
	return name + StatsFileSuffix
}

// WriteJSON writes v as indented JSON, creating parent directories
func (s *ExportService) WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(content, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteRepositoryStats writes <name>_stats.json into dir
func (s *ExportService) WriteRepositoryStats(dir string, stats *models.RepositoryStats) (string, error) {
	path := filepath.Join(dir, StatsFileName(stats.DisplayName))
	return path, s.WriteJSON(path, stats)
}

// WriteRepositoryStatsFiles writes one stats file per repository. Display
// names that map to the same file name overwrite each other, last one wins,
// and each collision is logged.
func (s *ExportService) WriteRepositoryStatsFiles(dir string, stats []*models.RepositoryStats) ([]string, error) {
	written := make(map[string]string, len(stats))
	paths := make([]string, 0, len(stats))

	for _, repo := range stats {
		path, err := s.WriteRepositoryStats(dir, repo)
		if err != nil {
			return paths, err
		}
		if previous, ok := written[path]; ok {
			logger.WithRepository(repo.DisplayName).WithFields(map[string]interface{}{
				"file":        filepath.Base(path),
				"overwritten": previous,
			}).Warnf("Stats file name collision, keeping the last repository")
			written[path] = repo.DisplayName
			continue
		}
		written[path] = repo.DisplayName
		paths = append(paths, path)
	}

	return paths, nil
}

// WriteUnifiedStats writes unified_stats.json into dir
func (s *ExportService) WriteUnifiedStats(dir string, unified *models.UnifiedStats, findings []string) (string, error) {
	if findings == nil {
		findings = []string{}
	}
	path := filepath.Join(dir, UnifiedStatsFile)
	return path, s.WriteJSON(path, UnifiedReport{
		UnifiedStats:     unified,
		Averages:         unified.Averages(),
		ValidationErrors: findings,
	})
}

// LoadStatsFiles reads every *_stats.json in dir except unified_stats.json,
// in file name order. Unreadable or invalid files are skipped.
func (s *ExportService) LoadStatsFiles(dir string) ([]*models.RepositoryStats, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+StatsFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list stats files: %w", err)
	}
	sort.Strings(paths)

	stats := make([]*models.RepositoryStats, 0, len(paths))
	for _, path := range paths {
		if filepath.Base(path) == UnifiedStatsFile {
			continue
		}
		log := logger.WithField("file", path)

		content, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).Warnf("Skipping unreadable stats file")
			continue
		}

		repo := models.NewRepositoryStats("")
		if err := json.Unmarshal(content, repo); err != nil {
			log.WithError(err).Warnf("Skipping invalid stats file")
			continue
		}
		if repo.LanguageStats == nil {
			repo.LanguageStats = make(models.LanguageStats)
		}
		if err := repo.Validate(); err != nil {
			log.WithError(err).Warnf("Skipping inconsistent stats file")
			continue
		}
		stats = append(stats, repo)
	}

	return stats, nil
}

// LoadUnifiedStats reads a unified_stats.json document
func (s *ExportService) LoadUnifiedStats(path string) (*models.UnifiedStats, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	report := UnifiedReport{UnifiedStats: models.NewUnifiedStats()}
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return report.UnifiedStats, report.ValidationErrors, nil
}

// WriteWorkbook writes the Summary, Repositories and Languages sheets to w
func (s *ExportService) WriteWorkbook(w io.Writer, unified *models.UnifiedStats, findings []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for _, sheet := range []string{SheetRepositories, SheetLanguages} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := s.writeSummary(f, headerStyle, unified, findings); err != nil {
		return err
	}
	if err := s.writeRepositories(f, headerStyle, unified); err != nil {
		return err
	}
	if err := s.writeLanguages(f, headerStyle, unified); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportWorkbook writes the workbook to path
func (s *ExportService) ExportWorkbook(path string, unified *models.UnifiedStats, findings []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := s.WriteWorkbook(file, unified, findings); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (s *ExportService) writeSummary(f *excelize.File, headerStyle int, unified *models.UnifiedStats, findings []string) error {
	locPct, commitsPct, filesPct := s.cross.Percentages(unified.DesignatedAuthorUnified, unified.Totals())
	averages := unified.Averages()
	divergence := unified.LanguageDivergence

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Repositories processed", unified.RepositoriesProcessed},
		{"Total LOC", unified.TotalLOC},
		{"Total commits", unified.TotalCommits},
		{"Total files", unified.TotalFiles},
		{"Designated LOC", unified.DesignatedAuthorUnified.LOC},
		{"Designated commits", unified.DesignatedAuthorUnified.Commits},
		{"Designated files", unified.DesignatedAuthorUnified.Files},
		{"Designated LOC %", round2(locPct)},
		{"Designated commits %", round2(commitsPct)},
		{"Designated files %", round2(filesPct)},
		{"LOC per repository", round2(averages.LOCPerRepository)},
		{"Commits per repository", round2(averages.CommitsPerRepository)},
		{"Files per repository", round2(averages.FilesPerRepository)},
		{"LOC per file", round2(averages.LOCPerFile)},
		{"Language LOC", divergence.LanguageLOC},
		{"Language divergence LOC", divergence.DivergenceLOC},
		{"Language divergence ratio", round2(divergence.Ratio)},
	}

	if len(findings) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Validation findings"})
		for _, finding := range findings {
			rows = append(rows, []interface{}{finding})
		}
	}

	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to style summary sheet: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "A", 30)
}

func (s *ExportService) writeRepositories(f *excelize.File, headerStyle int, unified *models.UnifiedStats) error {
	names := make([]string, 0, len(unified.RepositoryBreakdown))
	for name := range unified.RepositoryBreakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]interface{}{{
		"Repository", "Total LOC", "Total commits", "Total files",
		"Designated LOC", "Designated commits", "Designated files", "Designated LOC %",
	}}
	for _, name := range names {
		repo := unified.RepositoryBreakdown[name]
		locPct, _, _ := s.cross.Percentages(repo.DesignatedAuthorStats, repo.RepositoryTotals)
		rows = append(rows, []interface{}{
			name,
			repo.RepositoryTotals.LOC,
			repo.RepositoryTotals.Commits,
			repo.RepositoryTotals.Files,
			repo.DesignatedAuthorStats.LOC,
			repo.DesignatedAuthorStats.Commits,
			repo.DesignatedAuthorStats.Files,
			round2(locPct),
		})
	}

	if err := writeRows(f, SheetRepositories, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetRepositories, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to style repositories sheet: %w", err)
	}
	return f.SetColWidth(SheetRepositories, "A", "A", 24)
}

func (s *ExportService) writeLanguages(f *excelize.File, headerStyle int, unified *models.UnifiedStats) error {
	languageTotal := unified.UnifiedLanguageStats.Total()

	rows := [][]interface{}{{"Language", "LOC", "Files", "Share %"}}
	for _, language := range unified.UnifiedLanguageStats.Languages() {
		stats := unified.UnifiedLanguageStats[language]
		share, _, _ := s.cross.Percentages(stats, languageTotal)
		rows = append(rows, []interface{}{language, stats.LOC, stats.Files, round2(share)})
	}

	if err := writeRows(f, SheetLanguages, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetLanguages, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("failed to style languages sheet: %w", err)
	}
	return f.SetColWidth(SheetLanguages, "A", "A", 20)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
