package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/config"
	"github.com/alimgiray/gfame/pkg/logger"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		xlsxPath string
		noDB     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check out and process every configured repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			warnDuplicateDisplayNames(cfg)

			store := services.RunStore{}
			if !noDB {
				var closeStore func()
				store, closeStore, err = openStore(cfg)
				if err != nil {
					return err
				}
				defer closeStore()
			}

			pipeline, err := services.NewPipelineServiceFromConfig(cfg, services.NewExecRunner(), store)
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), services.TargetsFromConfig(cfg))
			if err != nil {
				return err
			}

			export := services.NewExportService(services.NewCrossRepoAggregator())
			if _, err := export.WriteRepositoryStatsFiles(cfg.Processing.OutputDir, result.Repositories); err != nil {
				return err
			}
			unifiedPath, err := export.WriteUnifiedStats(cfg.Processing.OutputDir, result.Unified, result.Findings)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := export.ExportWorkbook(xlsxPath, result.Unified, result.Findings); err != nil {
					return err
				}
			}

			printSummary(cmd.OutOrStdout(), result.Unified, result.Findings)
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d processed, %d failed, written to %s\n",
				result.Run.ID, result.Run.RepositoriesProcessed, result.Run.RepositoriesFailed, unifiedPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write an XLSX workbook to this path")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "do not record the run in the database")

	return cmd
}

func warnDuplicateDisplayNames(cfg *config.Config) {
	for _, name := range cfg.DuplicateDisplayNames() {
		logger.WithRepository(name).Warnf("Display name used by more than one repository, the last one wins")
	}
}

func printSummary(w io.Writer, unified *models.UnifiedStats, findings []string) {
	cross := services.NewCrossRepoAggregator()
	locPct, commitsPct, filesPct := cross.Percentages(unified.DesignatedAuthorUnified, unified.Totals())

	fmt.Fprintf(w, "Repositories: %d\n", unified.RepositoriesProcessed)
	fmt.Fprintf(w, "Total:        %d loc, %d commits, %d files\n", unified.TotalLOC, unified.TotalCommits, unified.TotalFiles)
	fmt.Fprintf(w, "Designated:   %d loc (%.2f%%), %d commits (%.2f%%), %d files (%.2f%%)\n",
		unified.DesignatedAuthorUnified.LOC, locPct,
		unified.DesignatedAuthorUnified.Commits, commitsPct,
		unified.DesignatedAuthorUnified.Files, filesPct)

	total := unified.UnifiedLanguageStats.Total()
	for _, language := range unified.UnifiedLanguageStats.Languages() {
		stats := unified.UnifiedLanguageStats[language]
		share, _, _ := cross.Percentages(stats, total)
		fmt.Fprintf(w, "  %-20s %8d loc %6.2f%%\n", language, stats.LOC, share)
	}

	for _, finding := range findings {
		fmt.Fprintf(w, "Warning: %s\n", finding)
	}
}
