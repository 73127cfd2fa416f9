package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/config"
)

func newProcessCmd(root *rootOptions) *cobra.Command {
	var (
		repoPath  string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "process <name>",
		Short: "Process a single repository and write <name>_stats.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}

			target, err := findTarget(cfg, args[0], repoPath)
			if err != nil {
				return err
			}

			pipeline, err := services.NewPipelineServiceFromConfig(cfg, services.NewExecRunner(), services.RunStore{})
			if err != nil {
				return err
			}

			stats, err := pipeline.Process(cmd.Context(), target)
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = cfg.Processing.OutputDir
			}
			path, err := services.NewExportService(services.NewCrossRepoAggregator()).WriteRepositoryStats(outputDir, stats)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d loc, %d designated, written to %s\n",
				stats.DisplayName, stats.RepositoryTotals.LOC, stats.DesignatedAuthorStats.LOC, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "path", "", "working copy to process instead of the configured one")
	cmd.Flags().StringVar(&outputDir, "out", "", "output directory (default processing.output_dir)")

	return cmd
}

// findTarget picks the configured repository called name, matching either
// its name or display name. With an explicit path an unconfigured name is
// fine.
func findTarget(cfg *config.Config, name, path string) (models.RepositoryTarget, error) {
	for _, target := range services.TargetsFromConfig(cfg) {
		if target.Name != name && target.DisplayName != name {
			continue
		}
		if path != "" {
			target.Path = path
			target.CloneURL = ""
		}
		return target, nil
	}

	if path == "" {
		return models.RepositoryTarget{}, &config.ConfigError{
			Problems: []string{fmt.Sprintf("repository %q is not configured, pass --path to process it anyway", name)},
		}
	}
	return models.RepositoryTarget{Name: name, DisplayName: name, Path: path}, nil
}
