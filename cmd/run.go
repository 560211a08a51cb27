package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/app"
	"github.com/okqualiteeau/eauparquet/internal/extractor"
	"github.com/okqualiteeau/eauparquet/internal/fetcher"
	"github.com/okqualiteeau/eauparquet/internal/tabularizer"
)

var runWithUI bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ingestion pipeline",
	Long: `Performs the complete data pipeline in order:
1. Fetches the configured archives into the zip/ area.
2. Extracts stored archives into unzip/<archive-base>/.
3. Tabulates the sampling-point (DIS_PLV) files per year into parquet.
4. Tabulates the result (DIS_RESULT) files per year into parquet.
Every unit whose completion marker already exists is skipped, so the
command is safe to re-run after an interruption.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()
		ctx := context.Background()

		store, err := getStore()
		if err != nil {
			return err
		}

		if runWithUI {
			return app.Run(ctx, cfg, store, logger)
		}

		logger.Info("Starting pipeline run.")

		if _, err := fetcher.FetchArchives(ctx, cfg, store, logger, nil); err != nil {
			return fmt.Errorf("fetch stage failed: %w", err)
		}

		var runErr error
		if _, err := extractor.ExtractArchives(ctx, cfg, store, logger, nil); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("extract stage: %w", err))
		}
		for _, kind := range []tabularizer.Kind{tabularizer.KindSamplingPoint, tabularizer.KindResult} {
			if _, err := tabularizer.TabulateYears(ctx, cfg, store, kind, logger, nil); err != nil {
				runErr = errors.Join(runErr, fmt.Errorf("tabulate %s stage: %w", kind, err))
			}
		}

		if runErr != nil {
			logger.Error("Pipeline completed with errors.", "error", runErr)
			return runErr
		}
		logger.Info("Pipeline completed successfully.")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runWithUI, "ui", false, "Show an interactive progress view instead of plain logs")
}
