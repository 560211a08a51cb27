package cmd

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/marker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline progress per archive",
	Long: `Lists every archive in the zip/ area together with the state of its
extraction and tabulate markers, including the metadata recorded in
each marker (extracted file count, assembled row count).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ctx := context.Background()

		store, err := getStore()
		if err != nil {
			return err
		}

		keys, err := store.List(ctx, cfg.ZipPrefix)
		if err != nil {
			return fmt.Errorf("list archives: %w", err)
		}
		var bases []string
		for _, k := range keys {
			if strings.HasSuffix(strings.ToLower(k), ".zip") {
				bases = append(bases, strings.TrimSuffix(path.Base(k), path.Ext(k)))
			}
		}
		if len(bases) == 0 {
			fmt.Println("No archives stored yet.")
			return nil
		}

		fmt.Printf("%-20s %-24s %-24s %-24s\n", "ARCHIVE", "EXTRACTED", "PLV", "RESULT")
		for _, base := range bases {
			extracted, err := markerSummary(ctx, store, marker.ExtractionPath(cfg.UnzipPrefix, base), readExtraction)
			if err != nil {
				return err
			}
			plv, err := markerSummary(ctx, store, marker.TabulatePath(cfg.PlvPrefix, base), readTabulate)
			if err != nil {
				return err
			}
			result, err := markerSummary(ctx, store, marker.TabulatePath(cfg.ResultPrefix, base), readTabulate)
			if err != nil {
				return err
			}
			fmt.Printf("%-20s %-24s %-24s %-24s\n", base, extracted, plv, result)
		}
		return nil
	},
}

// markerSummary probes one marker and renders a short cell for the
// status table. A missing marker renders as "pending".
func markerSummary(ctx context.Context, store blob.Store, key string, read func([]byte) (string, error)) (string, error) {
	body, err := blob.ReadAll(ctx, store, key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return "pending", nil
		}
		return "", fmt.Errorf("read marker %s: %w", key, err)
	}
	s, err := read(body)
	if err != nil {
		// A malformed marker still proves completion; show it as done.
		return "done", nil
	}
	return s, nil
}

func readExtraction(body []byte) (string, error) {
	m, err := marker.ParseExtraction(body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("done (%d files)", m.FilesExtracted), nil
}

func readTabulate(body []byte) (string, error) {
	m, err := marker.ParseTabulate(body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("done (%d rows, %d parts)", m.Rows, m.Parts), nil
}
