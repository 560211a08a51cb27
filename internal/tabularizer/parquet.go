package tabularizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/okqualiteeau/eauparquet/internal/tabular"
)

// WriteParquet writes a frame to path as a snappy-compressed parquet
// file. Every column is written as optional UTF8 text; typing is left
// to downstream consumers.
func WriteParquet(f *tabular.Frame, path string) error {
	names := uniqueColumnNames(f.Columns)
	meta := make([]string, len(names))
	for i, name := range names {
		meta[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet file %s: %w", path, err)
	}
	pw, err := writer.NewCSVWriter(meta, fw, 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("init parquet writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var werr error
	for _, row := range f.Rows {
		rec := make([]*string, len(f.Columns))
		for j := range f.Columns {
			if j < len(row) {
				v := row[j]
				rec[j] = &v
			}
		}
		if err := pw.WriteString(rec); err != nil {
			werr = errors.Join(werr, fmt.Errorf("write row: %w", err))
		}
	}

	if err := pw.WriteStop(); err != nil {
		werr = errors.Join(werr, fmt.Errorf("stop writer: %w", err))
	}
	if err := fw.Close(); err != nil {
		werr = errors.Join(werr, fmt.Errorf("close file: %w", err))
	}
	return werr
}

// uniqueColumnNames maps source headers to parquet-safe column names,
// suffixing repeats so distinct headers never merge into one column.
func uniqueColumnNames(cols []string) []string {
	out := make([]string, len(cols))
	seen := make(map[string]struct{}, len(cols))
	for i, col := range cols {
		name := cleanColumnName(col, i)
		base := name
		for n := 2; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

// cleanColumnName maps a source header to a parquet-safe column name.
func cleanColumnName(name string, idx int) string {
	r := strings.NewReplacer(" ", "_", ".", "_", ";", "_", ",", "_", "=", "_")
	clean := r.Replace(strings.TrimSpace(name))
	if clean == "" {
		clean = fmt.Sprintf("column_%d", idx)
	}
	return clean
}
