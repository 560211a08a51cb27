package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/fetcher"
)

var discoverURL string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the source archives into the raw zip area",
	Long: `Downloads each configured archive URL and stores the response body
unmodified under the zip/ prefix. URLs whose destination object already
exists are skipped without a network fetch unless --overwrite is set.

With --discover, the archive list is read from an HTML index page
instead (every .zip link on the page).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()
		ctx := context.Background()

		store, err := getStore()
		if err != nil {
			return err
		}

		if discoverURL != "" {
			urls, err := fetcher.DiscoverArchiveURLs(ctx, cfg, discoverURL, logger)
			if err != nil {
				return fmt.Errorf("discover archives: %w", err)
			}
			if len(urls) == 0 {
				logger.Warn("No archive links found on index page.", "index_url", discoverURL)
				return nil
			}
			cfg.ArchiveURLs = urls
		}

		sum, err := fetcher.FetchArchives(ctx, cfg, store, logger, nil)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		fmt.Printf("Fetched %d archive(s), skipped %d already stored.\n", sum.Fetched, sum.Skipped)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&discoverURL, "discover", "", "Discover archive URLs from an HTML index page instead of the configured list")
}
