package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/logger"
)

func newAggregateCmd() *cobra.Command {
	var (
		dir      string
		outDir   string
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Combine *_stats.json files into unified_stats.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cross := services.NewCrossRepoAggregator()
			export := services.NewExportService(cross)

			stats, err := export.LoadStatsFiles(dir)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				return fmt.Errorf("no stats files in %s: %w", dir, services.ErrNoRepositoriesProcessed)
			}

			unified := cross.Aggregate(stats)
			findings := cross.Validate(unified)
			for _, finding := range findings {
				logger.Warnf("Validation: %s", finding)
			}

			if outDir == "" {
				outDir = dir
			}
			path, err := export.WriteUnifiedStats(outDir, unified, findings)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := export.ExportWorkbook(xlsxPath, unified, findings); err != nil {
					return err
				}
			}

			printSummary(cmd.OutOrStdout(), unified, findings)
			fmt.Fprintf(cmd.OutOrStdout(), "Written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the *_stats.json files")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default --dir)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write an XLSX workbook to this path")

	return cmd
}
