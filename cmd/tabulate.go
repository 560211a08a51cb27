package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/tabularizer"
)

var tabulateCmd = &cobra.Command{
	Use:   "tabulate [plv|result|all]",
	Short: "Assemble extracted year directories into parquet parts",
	Long: `Assembles the delimited text files of each extracted year directory
into row-chunked parquet output. 'plv' selects the DIS_PLV sampling-point
files, 'result' the DIS_RESULT analysis-result files, 'all' runs both
pipelines. Years whose output marker exists are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()
		ctx := context.Background()

		which := "all"
		if len(args) > 0 {
			which = strings.ToLower(args[0])
		}
		var kinds []tabularizer.Kind
		switch which {
		case "plv":
			kinds = []tabularizer.Kind{tabularizer.KindSamplingPoint}
		case "result":
			kinds = []tabularizer.Kind{tabularizer.KindResult}
		case "all":
			kinds = []tabularizer.Kind{tabularizer.KindSamplingPoint, tabularizer.KindResult}
		default:
			return fmt.Errorf("invalid pipeline %q (use 'plv', 'result' or 'all')", args[0])
		}

		store, err := getStore()
		if err != nil {
			return err
		}

		var runErr error
		for _, kind := range kinds {
			sum, err := tabularizer.TabulateYears(ctx, cfg, store, kind, logger, nil)
			if err != nil {
				runErr = errors.Join(runErr, err)
			}
			fmt.Printf("Pipeline %s: %d year(s) tabulated, %d skipped.\n", kind, sum.Processed, sum.Skipped)
		}
		if runErr != nil {
			return fmt.Errorf("tabulate completed with errors: %w", runErr)
		}
		return nil
	},
}
