// Package fetcher implements the first pipeline stage: downloading
// each source archive by URL and storing it unmodified under the raw
// zip prefix. Destinations that already exist are skipped without a
// network fetch unless overwrite is configured.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/config"
	"github.com/okqualiteeau/eauparquet/internal/util"
)

// Statuses reported on the progress channel.
const (
	StatusDownloading = "Downloading"
	StatusComplete    = "Complete"
	StatusSkipped     = "Skipped"
	StatusError       = "Error"
)

// Progress describes the state of one archive fetch.
type Progress struct {
	URL    string
	Key    string
	Status string
	Err    error
}

// Summary aggregates one fetch run.
type Summary struct {
	Fetched int
	Skipped int
}

// FetchArchives downloads every configured archive URL into the zip
// prefix. Any HTTP or storage failure is fatal for the whole run;
// there is no per-URL retry. progress may be nil.
func FetchArchives(ctx context.Context, cfg config.Config, store blob.Store, logger *slog.Logger, progress chan<- Progress) (Summary, error) {
	client := util.NewHTTPClient(cfg.HTTPTimeout)
	var sum Summary

	logger.Info("Starting archive fetch.", slog.Int("url_count", len(cfg.ArchiveURLs)), slog.Bool("overwrite", cfg.Overwrite))

	for _, archiveURL := range cfg.ArchiveURLs {
		select {
		case <-ctx.Done():
			logger.Warn("Fetch cancelled by context.")
			return sum, ctx.Err()
		default:
		}

		key, err := destinationKey(cfg.ZipPrefix, archiveURL)
		if err != nil {
			notify(progress, Progress{URL: archiveURL, Status: StatusError, Err: err})
			return sum, err
		}
		l := logger.With(slog.String("url", archiveURL), slog.String("key", key))

		if !cfg.Overwrite {
			exists, err := store.Exists(ctx, key)
			if err != nil {
				notify(progress, Progress{URL: archiveURL, Key: key, Status: StatusError, Err: err})
				return sum, fmt.Errorf("check %s: %w", key, err)
			}
			if exists {
				l.Info("Archive already stored, skipping download.")
				sum.Skipped++
				notify(progress, Progress{URL: archiveURL, Key: key, Status: StatusSkipped})
				continue
			}
		}

		l.Info("Downloading archive.")
		notify(progress, Progress{URL: archiveURL, Key: key, Status: StatusDownloading})

		if err := fetchOne(ctx, client, store, archiveURL, key); err != nil {
			l.Error("Fetch failed.", "error", err)
			notify(progress, Progress{URL: archiveURL, Key: key, Status: StatusError, Err: err})
			return sum, err
		}

		l.Info("Archive stored.")
		sum.Fetched++
		notify(progress, Progress{URL: archiveURL, Key: key, Status: StatusComplete})
	}

	logger.Info("Fetch complete.", slog.Int("fetched", sum.Fetched), slog.Int("skipped", sum.Skipped))
	return sum, nil
}

// fetchOne streams one HTTP response body directly into storage.
func fetchOne(ctx context.Context, client *http.Client, store blob.Store, archiveURL, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return fmt.Errorf("create request %s: %w", archiveURL, err)
	}
	req.Header.Set("Accept", "application/zip,application/octet-stream,*/*")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", archiveURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status '%s' fetching %s", resp.Status, archiveURL)
	}

	if err := store.Put(ctx, key, resp.Body, resp.ContentLength, "application/zip"); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// destinationKey derives the storage key from the URL's last path
// segment, e.g. .../20250329-074506/dis-2024-dept.zip -> zip/dis-2024-dept.zip.
func destinationKey(zipPrefix, archiveURL string) (string, error) {
	u, err := url.Parse(archiveURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", archiveURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url %s has no file name", archiveURL)
	}
	return zipPrefix + name, nil
}

func notify(ch chan<- Progress, p Progress) {
	if ch != nil {
		ch <- p
	}
}
