package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/internal/repositories"
	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/database"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		runID string
		input string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored run or a unified_stats.json file as an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			export := services.NewExportService(services.NewCrossRepoAggregator())

			var (
				unified  *models.UnifiedStats
				findings []string
				err      error
			)
			if input != "" {
				unified, findings, err = export.LoadUnifiedStats(input)
			} else {
				unified, findings, err = loadStoredRun(cmd, root, runID)
			}
			if err != nil {
				return err
			}

			if err := export.ExportWorkbook(out, unified, findings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "stored run to export (default the latest run)")
	cmd.Flags().StringVar(&input, "input", "", "unified_stats.json to export instead of a stored run")
	cmd.Flags().StringVar(&out, "out", "gfame.xlsx", "workbook path")
	cmd.MarkFlagsMutuallyExclusive("run-id", "input")

	return cmd
}

func loadStoredRun(cmd *cobra.Command, root *rootOptions, runID string) (*models.UnifiedStats, []string, error) {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Init(cfg.Database.Path); err != nil {
		return nil, nil, err
	}
	defer database.Close()

	if runID == "" {
		run, err := repositories.NewPipelineRunRepository(database.DB).GetLatest()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find latest run: %w", err)
		}
		runID = run.ID
	}

	unified, findings, err := repositories.NewUnifiedStatsRepository(database.DB).GetByRunID(runID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fmt.Errorf("run %s has no unified stats: %w", runID, err)
	}
	return unified, findings, err
}
