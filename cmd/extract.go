package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/extractor"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Unpack stored archives into per-entry objects",
	Long: `Unpacks each .zip object under the zip/ prefix into individual objects
under unzip/<archive-base>/. Archives whose _SUCCESS marker exists are
skipped entirely; within an archive, entries already uploaded are
skipped individually, so an interrupted extraction resumes where it
left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()

		store, err := getStore()
		if err != nil {
			return err
		}

		sum, err := extractor.ExtractArchives(context.Background(), cfg, store, logger, nil)
		if err != nil {
			return fmt.Errorf("extract failed: %w", err)
		}
		fmt.Printf("Extracted %d archive(s), skipped %d already done.\n", sum.Processed, sum.Skipped)
		return nil
	},
}
