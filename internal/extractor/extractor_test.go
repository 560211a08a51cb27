package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/config"
	"github.com/okqualiteeau/eauparquet/internal/marker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildZip assembles a zip archive from entry name to content.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func seedZip(t *testing.T, store *blob.MemoryStore, key string, entries map[string]string) {
	t.Helper()
	data := buildZip(t, entries)
	err := store.Put(context.Background(), key, bytes.NewReader(data), int64(len(data)), "application/zip")
	require.NoError(t, err)
}

func TestExtractArchives(t *testing.T) {
	store := blob.NewMemoryStore()
	cfg := config.Default()
	seedZip(t, store, cfg.ZipPrefix+"dis-2024-dept.zip", map[string]string{
		"DIS_PLV_2024.txt":    "cddept;referenceprel\n001;X1\n",
		"DIS_RESULT_2024.txt": "cddept;cdparametre\n001;1340\n",
	})

	sum, err := ExtractArchives(context.Background(), cfg, store, testLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 0, sum.Skipped)

	data, err := blob.ReadAll(context.Background(), store, cfg.UnzipPrefix+"dis-2024-dept/DIS_PLV_2024.txt")
	require.NoError(t, err)
	assert.Equal(t, "cddept;referenceprel\n001;X1\n", string(data))

	body, err := blob.ReadAll(context.Background(), store, marker.ExtractionPath(cfg.UnzipPrefix, "dis-2024-dept"))
	require.NoError(t, err)
	m, err := marker.ParseExtraction(body)
	require.NoError(t, err)
	assert.Equal(t, 2, m.FilesExtracted)
	assert.Equal(t, cfg.ZipPrefix+"dis-2024-dept.zip", m.Zip)
}

func TestExtractArchivesIdempotent(t *testing.T) {
	store := blob.NewMemoryStore()
	cfg := config.Default()
	seedZip(t, store, cfg.ZipPrefix+"dis-2024-dept.zip", map[string]string{
		"DIS_PLV_2024.txt": "cddept\n001\n",
	})

	_, err := ExtractArchives(context.Background(), cfg, store, testLogger(), nil)
	require.NoError(t, err)
	before := store.PutCount()

	sum, err := ExtractArchives(context.Background(), cfg, store, testLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, before, store.PutCount(), "marked archive must not be reprocessed")
}

func TestExtractArchivesResumesAfterPartialRun(t *testing.T) {
	store := blob.NewMemoryStore()
	cfg := config.Default()
	seedZip(t, store, cfg.ZipPrefix+"dis-2024-dept.zip", map[string]string{
		"DIS_PLV_2024.txt":    "cddept\n001\n",
		"DIS_RESULT_2024.txt": "cddept\n002\n",
	})

	// Simulate a crash after one entry was uploaded but before the marker.
	seeded := "stale-partial-content"
	err := store.Put(context.Background(), cfg.UnzipPrefix+"dis-2024-dept/DIS_PLV_2024.txt",
		strings.NewReader(seeded), int64(len(seeded)), "text/plain")
	require.NoError(t, err)

	sum, err := ExtractArchives(context.Background(), cfg, store, testLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)

	// The pre-existing entry is kept as is, the missing one is uploaded.
	data, err := blob.ReadAll(context.Background(), store, cfg.UnzipPrefix+"dis-2024-dept/DIS_PLV_2024.txt")
	require.NoError(t, err)
	assert.Equal(t, seeded, string(data))
	data, err = blob.ReadAll(context.Background(), store, cfg.UnzipPrefix+"dis-2024-dept/DIS_RESULT_2024.txt")
	require.NoError(t, err)
	assert.Equal(t, "cddept\n002\n", string(data))

	exists, err := store.Exists(context.Background(), marker.ExtractionPath(cfg.UnzipPrefix, "dis-2024-dept"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExtractArchivesCorruptZipContinues(t *testing.T) {
	store := blob.NewMemoryStore()
	cfg := config.Default()
	bad := "not a zip archive"
	err := store.Put(context.Background(), cfg.ZipPrefix+"dis-2023-dept.zip",
		strings.NewReader(bad), int64(len(bad)), "application/zip")
	require.NoError(t, err)
	seedZip(t, store, cfg.ZipPrefix+"dis-2024-dept.zip", map[string]string{
		"DIS_PLV_2024.txt": "cddept\n001\n",
	})

	sum, err := ExtractArchives(context.Background(), cfg, store, testLogger(), nil)
	require.Error(t, err, "corrupt archive surfaces in the joined error")
	assert.Equal(t, 1, sum.Processed, "remaining archives still processed")

	exists, err := store.Exists(context.Background(), marker.ExtractionPath(cfg.UnzipPrefix, "dis-2023-dept"))
	require.NoError(t, err)
	assert.False(t, exists, "failed archive gets no marker")
}

func TestNormalizeEntryPath(t *testing.T) {
	assert.Equal(t, "DIS_PLV_2024.txt", NormalizeEntryPath("./DIS_PLV_2024.txt"))
	assert.Equal(t, "DIS_PLV_2024.txt", NormalizeEntryPath("/DIS_PLV_2024.txt"))
	assert.Equal(t, "sub/DIS_PLV_2024.txt", NormalizeEntryPath("sub\\DIS_PLV_2024.txt"))
	assert.Equal(t, "DIS_PLV_2024.txt", NormalizeEntryPath("DIS_PLV_2024.txt"))
}
