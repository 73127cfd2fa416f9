package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

func sampleUnified() *models.UnifiedStats {
	api := models.NewRepositoryStats("api")
	api.RepositoryTotals = models.NewAuthorStats(100, 10, 5)
	api.DesignatedAuthorStats = models.NewAuthorStats(50, 5, 1)
	api.LanguageStats["Go"] = models.NewAuthorStats(80, 0, 4)
	web := models.NewRepositoryStats("web")
	web.RepositoryTotals = models.NewAuthorStats(200, 20, 10)
	web.LanguageStats["TypeScript"] = models.NewAuthorStats(160, 0, 8)

	return NewCrossRepoAggregator().Aggregate([]*models.RepositoryStats{api, web})
}

func TestStatsFileName(t *testing.T) {
	assert.Equal(t, "api_stats.json", StatsFileName("api"))
	assert.Equal(t, "acme_web_app_stats.json", StatsFileName("acme/web app"))
}

func TestWriteAndLoadStatsFiles(t *testing.T) {
	dir := t.TempDir()
	export := NewExportService(NewCrossRepoAggregator())

	unified := sampleUnified()
	for _, name := range []string{"web", "api"} {
		_, err := export.WriteRepositoryStats(dir, unified.RepositoryBreakdown[name])
		require.NoError(t, err)
	}
	_, err := export.WriteUnifiedStats(dir, unified, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_stats.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad_stats.json"),
		[]byte(`{"display_name":"bad","designated_author_stats":{"loc":5},"repository_totals":{"loc":1}}`), 0644))

	loaded, err := export.LoadStatsFiles(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, unified.RepositoryBreakdown["api"], loaded[0])
	assert.Equal(t, unified.RepositoryBreakdown["web"], loaded[1])

	// re-aggregating the files gives the same rollup
	assert.Equal(t, unified, NewCrossRepoAggregator().Aggregate(loaded))
}

func TestWriteAndLoadUnifiedStats(t *testing.T) {
	dir := t.TempDir()
	export := NewExportService(NewCrossRepoAggregator())
	unified := sampleUnified()

	path, err := export.WriteUnifiedStats(dir, unified, []string{FindingNoDesignatedContributions})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, UnifiedStatsFile), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"total_loc": 300`)
	assert.Contains(t, string(content), `"loc_per_repository": 150`)
	assert.Contains(t, string(content), `"language_divergence"`)

	loaded, findings, err := export.LoadUnifiedStats(path)
	require.NoError(t, err)
	assert.Equal(t, unified, loaded)
	assert.Equal(t, []string{FindingNoDesignatedContributions}, findings)
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	export := NewExportService(NewCrossRepoAggregator())

	require.NoError(t, export.WriteWorkbook(&buf, sampleUnified(), []string{"something odd"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetRepositories, SheetLanguages}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Total LOC", "300"}, summary[2])
	assert.Equal(t, []string{"Designated LOC %", "16.67"}, summary[8])
	assert.Equal(t, []string{"something odd"}, summary[len(summary)-1])

	repos, err := f.GetRows(SheetRepositories)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "api", repos[1][0])
	assert.Equal(t, "50", repos[1][7])
	assert.Equal(t, "web", repos[2][0])

	languages, err := f.GetRows(SheetLanguages)
	require.NoError(t, err)
	require.Len(t, languages, 3)
	assert.Equal(t, []string{"TypeScript", "160", "8", "66.67"}, languages[1])
	assert.Equal(t, []string{"Go", "80", "4", "33.33"}, languages[2])
}

func TestExportWorkbookCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")

	require.NoError(t, NewExportService(NewCrossRepoAggregator()).ExportWorkbook(path, sampleUnified(), nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteRepositoryStatsFilesWarnsOnCollision(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(logger.Init)

	dir := t.TempDir()
	first := models.NewRepositoryStats("my repo")
	first.RepositoryTotals = models.NewAuthorStats(10, 1, 1)
	second := models.NewRepositoryStats("my_repo")
	second.RepositoryTotals = models.NewAuthorStats(20, 2, 2)
	other := models.NewRepositoryStats("web")

	paths, err := NewExportService(NewCrossRepoAggregator()).WriteRepositoryStatsFiles(dir, []*models.RepositoryStats{first, second, other})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "my_repo_stats.json"), filepath.Join(dir, "web_stats.json")}, paths)
	assert.Contains(t, buf.String(), "Stats file name collision")
	assert.Contains(t, buf.String(), `"overwritten":"my repo"`)

	loaded, err := NewExportService(NewCrossRepoAggregator()).LoadStatsFiles(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "my_repo", loaded[0].DisplayName)
}
