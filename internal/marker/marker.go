// Package marker defines the completion markers that make pipeline
// stages resumable. A marker's existence is the sole signal that a
// unit of work finished; its body is a few key=value lines of
// metadata for humans and the status command.
package marker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Name is the object name of every completion marker.
const Name = "_SUCCESS"

// ExtractionPath returns the marker key for one extracted archive,
// e.g. unzip/dis-2024-dept/_SUCCESS.
func ExtractionPath(unzipPrefix, archiveBase string) string {
	return unzipPrefix + archiveBase + "/" + Name
}

// TabulatePath returns the marker key for one tabulated year under
// the given output prefix, e.g. parquet_result/dis-2024-dept/_SUCCESS.
func TabulatePath(outPrefix, archiveBase string) string {
	return outPrefix + archiveBase + "/" + Name
}

// Extraction records a completed extraction of one archive.
type Extraction struct {
	Zip            string
	OutputPrefix   string
	FilesExtracted int
	TimestampUTC   time.Time
}

func (m Extraction) Render() []byte {
	return []byte(fmt.Sprintf(
		"zip=%s\noutput_prefix=%s\nfiles_extracted=%d\ntimestamp_utc=%s\n",
		m.Zip, m.OutputPrefix, m.FilesExtracted,
		m.TimestampUTC.UTC().Format(time.RFC3339),
	))
}

// ParseExtraction reads a marker body back. Unknown lines are ignored
// so the format can grow.
func ParseExtraction(body []byte) (Extraction, error) {
	var m Extraction
	kv, err := parseLines(body)
	if err != nil {
		return m, err
	}
	m.Zip = kv["zip"]
	m.OutputPrefix = kv["output_prefix"]
	if v, ok := kv["files_extracted"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return m, fmt.Errorf("files_extracted %q: %w", v, err)
		}
		m.FilesExtracted = n
	}
	if v, ok := kv["timestamp_utc"]; ok {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return m, fmt.Errorf("timestamp_utc %q: %w", v, err)
		}
		m.TimestampUTC = ts
	}
	return m, nil
}

// Tabulate records a completed tabularization of one year.
type Tabulate struct {
	Year         string
	Rows         int64
	Parts        int
	TimestampUTC time.Time
}

func (m Tabulate) Render() []byte {
	return []byte(fmt.Sprintf(
		"year=%s\nrows=%d\nparts=%d\ntimestamp_utc=%s\n",
		m.Year, m.Rows, m.Parts,
		m.TimestampUTC.UTC().Format(time.RFC3339),
	))
}

func ParseTabulate(body []byte) (Tabulate, error) {
	var m Tabulate
	kv, err := parseLines(body)
	if err != nil {
		return m, err
	}
	m.Year = kv["year"]
	if v, ok := kv["rows"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return m, fmt.Errorf("rows %q: %w", v, err)
		}
		m.Rows = n
	}
	if v, ok := kv["parts"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return m, fmt.Errorf("parts %q: %w", v, err)
		}
		m.Parts = n
	}
	if v, ok := kv["timestamp_utc"]; ok {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return m, fmt.Errorf("timestamp_utc %q: %w", v, err)
		}
		m.TimestampUTC = ts
	}
	return m, nil
}

func parseLines(body []byte) (map[string]string, error) {
	kv := make(map[string]string)
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed marker line %q", line)
		}
		kv[k] = v
	}
	return kv, nil
}
