package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/warehouse"
)

var (
	validateWarehousePath string
	validateStorage       bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate warehouse referential integrity and storage connectivity",
	Long: `Runs the integrity suite against the downstream warehouse: surrogate-key
uniqueness of each dimension table and foreign-key completeness of each
fact table. The warehouse is produced by an external transformation
layer; eauparquet only queries it.

With --storage, also checks that the configured bucket is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()
		ctx := context.Background()

		if validateStorage {
			store, err := getStore()
			if err != nil {
				return err
			}
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("storage check failed: %w", err)
			}
			fmt.Println("storage: OK")
		}

		path := validateWarehousePath
		if path == "" {
			path = cfg.WarehousePath
		}
		if path == "" {
			if validateStorage {
				return nil
			}
			return fmt.Errorf("--warehouse is required (path to the warehouse DuckDB file)")
		}

		db, err := warehouse.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		results, err := warehouse.RunChecks(ctx, db)
		if err != nil {
			return fmt.Errorf("integrity checks failed to run: %w", err)
		}

		failed := 0
		for _, r := range results {
			if r.OK() {
				fmt.Printf("PASS  %s\n", r.Name)
			} else {
				failed++
				fmt.Printf("FAIL  %s (%d violating rows)\n", r.Name, r.Violations)
			}
		}
		if failed > 0 {
			logger.Error("Warehouse validation failed.", "failed_checks", failed)
			return fmt.Errorf("%d integrity check(s) failed", failed)
		}
		logger.Info("Warehouse validation passed.", "checks", len(results))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateWarehousePath, "warehouse", "", "Path to the warehouse DuckDB database file")
	validateCmd.Flags().BoolVar(&validateStorage, "storage", false, "Also check storage connectivity (bucket reachable)")
}
