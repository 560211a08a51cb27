// Package tabularizer implements the third pipeline stage: assembling
// the delimited text files of each extracted year directory into
// row-chunked parquet output, one independent pipeline per file kind
// (sampling points and analysis results).
package tabularizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/config"
	"github.com/okqualiteeau/eauparquet/internal/marker"
	"github.com/okqualiteeau/eauparquet/internal/tabular"
)

const (
	StatusAssembling = "Assembling"
	StatusComplete   = "Complete"
	StatusSkipped    = "Skipped"
	StatusError      = "Error"
)

// Kind selects which source files a tabularizer run aggregates.
type Kind string

const (
	// KindSamplingPoint aggregates the DIS_PLV sampling-point files.
	KindSamplingPoint Kind = "plv"
	// KindResult aggregates the DIS_RESULT analysis-result files.
	KindResult Kind = "result"
)

var (
	yearDirRe    = regexp.MustCompile(`^dis-(\d{4})-dept$`)
	plvFileRe    = regexp.MustCompile(`(?i).*DIS_PLV.*\.txt$`)
	resultFileRe = regexp.MustCompile(`(?i).*DIS_RESULT.*\.txt$`)
)

// filePattern returns the regexp selecting this kind's source files.
func (k Kind) filePattern() (*regexp.Regexp, error) {
	switch k {
	case KindSamplingPoint:
		return plvFileRe, nil
	case KindResult:
		return resultFileRe, nil
	}
	return nil, fmt.Errorf("unknown kind %q", string(k))
}

// outPrefix returns this kind's output prefix from cfg.
func (k Kind) outPrefix(cfg config.Config) string {
	if k == KindSamplingPoint {
		return cfg.PlvPrefix
	}
	return cfg.ResultPrefix
}

// Progress describes the state of one year's tabularization.
type Progress struct {
	Year   string
	Status string
	Files  int
	Rows   int64
	Err    error
}

// Summary aggregates one tabularizer run.
type Summary struct {
	Processed int
	Skipped   int
}

// YearDir is one extracted archive's directory under the unzip prefix.
type YearDir struct {
	Base   string // e.g. dis-2024-dept
	Year   string // e.g. 2024
	Prefix string // e.g. unzip/dis-2024-dept/
}

// ListYearDirs finds the year directories present in the extracted
// area, sorted by base name. Directories not matching the naming
// pattern are ignored.
func ListYearDirs(ctx context.Context, store blob.Store, unzipPrefix string) ([]YearDir, error) {
	keys, err := store.List(ctx, unzipPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", unzipPrefix, err)
	}
	seen := make(map[string]YearDir)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, unzipPrefix)
		base, _, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		m := yearDirRe.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		seen[base] = YearDir{Base: base, Year: m[1], Prefix: unzipPrefix + base + "/"}
	}
	out := make([]YearDir, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out, nil
}

// TabulateYears assembles every pending year directory for one file
// kind. Decode and parse failures of individual files are logged and
// excluded; a year with no readable files is skipped with a warning.
// progress may be nil.
func TabulateYears(ctx context.Context, cfg config.Config, store blob.Store, kind Kind, logger *slog.Logger, progress chan<- Progress) (Summary, error) {
	var sum Summary
	var runErr error

	pattern, err := kind.filePattern()
	if err != nil {
		return sum, err
	}
	forcedDelim, err := tabular.DelimiterFromString(cfg.ForceDelimiter)
	if err != nil {
		return sum, err
	}
	outPrefix := kind.outPrefix(cfg)

	years, err := ListYearDirs(ctx, store, cfg.UnzipPrefix)
	if err != nil {
		return sum, err
	}
	if len(years) == 0 {
		logger.Warn("No year directories found under unzip prefix.", slog.String("prefix", cfg.UnzipPrefix))
		return sum, nil
	}
	logger.Info("Starting tabularization.", slog.String("kind", string(kind)), slog.Int("year_count", len(years)))

	for _, yd := range years {
		select {
		case <-ctx.Done():
			logger.Warn("Tabularization cancelled by context.")
			return sum, errors.Join(runErr, ctx.Err())
		default:
		}

		l := logger.With(slog.String("year", yd.Year), slog.String("dir", yd.Prefix))

		markerKey := marker.TabulatePath(outPrefix, yd.Base)
		exists, err := store.Exists(ctx, markerKey)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("check marker %s: %w", markerKey, err))
			notify(progress, Progress{Year: yd.Year, Status: StatusError, Err: err})
			continue
		}
		if exists {
			l.Info("Year already tabulated (marker present), skipping.")
			sum.Skipped++
			notify(progress, Progress{Year: yd.Year, Status: StatusSkipped})
			continue
		}

		notify(progress, Progress{Year: yd.Year, Status: StatusAssembling})
		files, rows, err := tabulateYear(ctx, cfg, store, l, yd, pattern, outPrefix, forcedDelim)
		if err != nil {
			l.Error("Year tabularization failed.", "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("year %s: %w", yd.Year, err))
			notify(progress, Progress{Year: yd.Year, Status: StatusError, Err: err})
			continue
		}
		if files == 0 {
			// Nothing matched or nothing parsed; warned inside.
			sum.Skipped++
			notify(progress, Progress{Year: yd.Year, Status: StatusSkipped})
			continue
		}
		sum.Processed++
		notify(progress, Progress{Year: yd.Year, Status: StatusComplete, Files: files, Rows: rows})
	}

	logger.Info("Tabularization complete.", slog.String("kind", string(kind)), slog.Int("processed", sum.Processed), slog.Int("skipped", sum.Skipped))
	return sum, runErr
}

// tabulateYear assembles one year directory. Returns the number of
// files that contributed rows and the total row count; (0, 0, nil)
// means the year had nothing usable and was skipped.
func tabulateYear(ctx context.Context, cfg config.Config, store blob.Store, logger *slog.Logger, yd YearDir, pattern *regexp.Regexp, outPrefix string, forcedDelim rune) (int, int64, error) {
	keys, err := store.List(ctx, yd.Prefix)
	if err != nil {
		return 0, 0, fmt.Errorf("list %s: %w", yd.Prefix, err)
	}
	var paths []string
	for _, k := range keys {
		if pattern.MatchString(k) {
			paths = append(paths, k)
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		logger.Warn("No matching source files for year, skipping.")
		return 0, 0, nil
	}
	logger.Info("Assembling source files.", slog.Int("file_count", len(paths)))

	var frames []*tabular.Frame
	for _, p := range paths {
		f, err := readFrame(ctx, cfg, store, p, forcedDelim)
		if err != nil {
			logger.Warn("Source file unreadable, excluding.", slog.String("path", p), "error", err)
			continue
		}
		if f.NumRows() == 0 {
			continue
		}
		f.AddConstColumn("_source_blob", p)
		f.AddConstColumn("_year", yd.Year)
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		logger.Warn("No readable data for year, skipping.")
		return 0, 0, nil
	}

	full := tabular.Concat(frames)
	parts := full.Chunk(cfg.ChunkRows)

	for i, part := range parts {
		partKey := fmt.Sprintf("%s%s/part-%05d.parquet", outPrefix, yd.Base, i)
		if err := writePartObject(ctx, store, part, partKey); err != nil {
			return 0, 0, err
		}
		logger.Debug("Part uploaded.", slog.String("key", partKey), slog.Int("rows", part.NumRows()))
	}

	m := marker.Tabulate{
		Year:         yd.Year,
		Rows:         int64(full.NumRows()),
		Parts:        len(parts),
		TimestampUTC: time.Now().UTC(),
	}
	markerKey := marker.TabulatePath(outPrefix, yd.Base)
	body := m.Render()
	if err := store.Put(ctx, markerKey, strings.NewReader(string(body)), int64(len(body)), "text/plain"); err != nil {
		return 0, 0, fmt.Errorf("write marker %s: %w", markerKey, err)
	}

	logger.Info("Year tabulated.", slog.Int64("rows", m.Rows), slog.Int("parts", m.Parts), slog.String("marker", markerKey))
	return len(frames), m.Rows, nil
}

// readFrame downloads one source file and parses it into a frame. A
// forced delimiter (non-zero) bypasses sniffing.
func readFrame(ctx context.Context, cfg config.Config, store blob.Store, key string, forcedDelim rune) (*tabular.Frame, error) {
	raw, err := blob.ReadAll(ctx, store, key)
	if err != nil {
		return nil, err
	}
	text, err := tabular.Decode(raw, cfg.ForceEncoding)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	delim := forcedDelim
	if delim == 0 {
		delim = tabular.DetectDelimiter(text)
	}
	f, err := tabular.ParseFrame(text, delim)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return f, nil
}

// writePartObject writes one chunk as a parquet file in a local
// temporary file, then uploads it. Parts are overwritten if present so
// a partially tabulated year is always retriable.
func writePartObject(ctx context.Context, store blob.Store, part *tabular.Frame, key string) error {
	tmp, err := os.CreateTemp("", "eauparquet-*.parquet")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath) // best-effort cleanup

	if err := WriteParquet(part, tmpPath); err != nil {
		return fmt.Errorf("write parquet for %s: %w", key, err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("reopen parquet %s: %w", tmpPath, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat parquet %s: %w", tmpPath, err)
	}
	if err := store.Put(ctx, key, f, st.Size(), "application/octet-stream"); err != nil {
		return fmt.Errorf("upload part %s: %w", key, err)
	}
	return nil
}

func notify(ch chan<- Progress, p Progress) {
	if ch != nil {
		ch <- p
	}
}
