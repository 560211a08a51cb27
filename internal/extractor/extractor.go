// Package extractor implements the second pipeline stage: unpacking
// each stored archive into per-entry objects under the unzip prefix.
// A _SUCCESS marker per archive makes the stage resumable; entries
// already present are skipped individually so an interrupted run
// wastes little work on retry.
package extractor

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/config"
	"github.com/okqualiteeau/eauparquet/internal/marker"
)

const (
	StatusExtracting = "Extracting"
	StatusComplete   = "Complete"
	StatusSkipped    = "Skipped"
	StatusError      = "Error"
)

// Progress describes the state of one archive extraction.
type Progress struct {
	Archive  string
	Status   string
	Uploaded int
	Err      error
}

// Summary aggregates one extraction run.
type Summary struct {
	Processed int
	Skipped   int
}

// ExtractArchives processes every .zip object under the zip prefix.
// A failure in one archive aborts that archive but not the run; since
// its marker was never written, the next invocation retries it.
// progress may be nil.
func ExtractArchives(ctx context.Context, cfg config.Config, store blob.Store, logger *slog.Logger, progress chan<- Progress) (Summary, error) {
	var sum Summary
	var runErr error

	keys, err := store.List(ctx, cfg.ZipPrefix)
	if err != nil {
		return sum, fmt.Errorf("list archives: %w", err)
	}
	var zipKeys []string
	for _, k := range keys {
		if strings.HasSuffix(strings.ToLower(k), ".zip") {
			zipKeys = append(zipKeys, k)
		}
	}
	if len(zipKeys) == 0 {
		logger.Info("No archives found under zip prefix, nothing to do.", slog.String("prefix", cfg.ZipPrefix))
		return sum, nil
	}
	logger.Info("Starting extraction.", slog.Int("archive_count", len(zipKeys)))

	for _, zipKey := range zipKeys {
		select {
		case <-ctx.Done():
			logger.Warn("Extraction cancelled by context.")
			return sum, errors.Join(runErr, ctx.Err())
		default:
		}

		base := strings.TrimSuffix(path.Base(zipKey), path.Ext(zipKey))
		l := logger.With(slog.String("archive", zipKey), slog.String("base", base))

		markerKey := marker.ExtractionPath(cfg.UnzipPrefix, base)
		exists, err := store.Exists(ctx, markerKey)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("check marker %s: %w", markerKey, err))
			notify(progress, Progress{Archive: base, Status: StatusError, Err: err})
			continue
		}
		if exists {
			l.Info("Already extracted (marker present), skipping.")
			sum.Skipped++
			notify(progress, Progress{Archive: base, Status: StatusSkipped})
			continue
		}

		notify(progress, Progress{Archive: base, Status: StatusExtracting})
		uploaded, err := extractOne(ctx, cfg, store, l, zipKey, base)
		if err != nil {
			l.Error("Archive extraction failed.", "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("extract %s: %w", zipKey, err))
			notify(progress, Progress{Archive: base, Status: StatusError, Uploaded: uploaded, Err: err})
			continue
		}
		sum.Processed++
		notify(progress, Progress{Archive: base, Status: StatusComplete, Uploaded: uploaded})
	}

	logger.Info("Extraction complete.", slog.Int("processed", sum.Processed), slog.Int("skipped", sum.Skipped))
	return sum, runErr
}

// extractOne downloads one archive to a temporary file, uploads each
// entry not already present, and writes the completion marker.
// Returns the number of entries uploaded.
func extractOne(ctx context.Context, cfg config.Config, store blob.Store, logger *slog.Logger, zipKey, base string) (int, error) {
	targetRoot := cfg.UnzipPrefix + base + "/"

	// The zip central directory needs random access, so spool the
	// archive to a local temporary file rather than holding it in memory.
	tmp, err := os.CreateTemp("", "eauparquet-*.zip")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // best-effort cleanup

	rc, err := store.Open(ctx, zipKey)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	_, copyErr := io.Copy(tmp, rc)
	rc.Close()
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return 0, fmt.Errorf("spool %s: %w", zipKey, copyErr)
	}

	zr, err := zip.OpenReader(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("open zip %s: %w", zipKey, err)
	}
	defer zr.Close()

	uploaded := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		select {
		case <-ctx.Done():
			return uploaded, ctx.Err()
		default:
		}

		dest := targetRoot + NormalizeEntryPath(f.Name)

		exists, err := store.Exists(ctx, dest)
		if err != nil {
			return uploaded, fmt.Errorf("check entry %s: %w", dest, err)
		}
		if exists {
			logger.Debug("Entry already uploaded, skipping.", slog.String("dest", dest))
			continue
		}

		entry, err := f.Open()
		if err != nil {
			return uploaded, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		putErr := store.Put(ctx, dest, entry, int64(f.UncompressedSize64), guessContentType(dest))
		entry.Close()
		if putErr != nil {
			return uploaded, fmt.Errorf("upload entry %s: %w", dest, putErr)
		}
		logger.Debug("Entry uploaded.", slog.String("dest", dest))
		uploaded++
	}

	m := marker.Extraction{
		Zip:            zipKey,
		OutputPrefix:   targetRoot,
		FilesExtracted: uploaded,
		TimestampUTC:   time.Now().UTC(),
	}
	markerKey := marker.ExtractionPath(cfg.UnzipPrefix, base)
	body := m.Render()
	if err := store.Put(ctx, markerKey, strings.NewReader(string(body)), int64(len(body)), "text/plain"); err != nil {
		return uploaded, fmt.Errorf("write marker %s: %w", markerKey, err)
	}

	logger.Info("Archive extracted.", slog.Int("files_extracted", uploaded), slog.String("marker", markerKey))
	return uploaded, nil
}

// NormalizeEntryPath normalizes a zip entry's internal path: leading
// "./", "/" and "\" are stripped and backslash separators converted.
func NormalizeEntryPath(name string) string {
	name = strings.TrimLeft(name, "./\\")
	return strings.ReplaceAll(name, "\\", "/")
}

func guessContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func notify(ch chan<- Progress, p Progress) {
	if ch != nil {
		ch <- p
	}
}
