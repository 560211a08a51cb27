// Package warehouse validates the referential integrity of the
// downstream star schema. The warehouse itself is produced by an
// external transformation layer; this package only queries it as a
// collaborator, via DuckDB.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Star-schema tables and their surrogate keys.
const (
	TableDimCommune      = "dim_commune"
	TableDimReseau       = "dim_reseau"
	TableDimParametre    = "dim_parametre"
	TableFactPrelevement = "fact_prelevement"
	TableFactResultat    = "fact_resultat"

	KeyCommune   = "commune_sk"
	KeyReseau    = "reseau_sk"
	KeyParametre = "parametre_sk"
)

// Open connects to the warehouse database file (":memory:" or "" for
// an in-memory instance) and verifies the connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse (%s): %w", path, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping warehouse (%s): %w", path, err)
	}
	return db, nil
}

// CheckResult is the outcome of one integrity check. Violations == 0
// means the check passed.
type CheckResult struct {
	Name       string
	Violations int64
}

func (r CheckResult) OK() bool { return r.Violations == 0 }

// PrimaryKeyDuplicates counts rows beyond the first per surrogate key
// in a dimension table. Zero means the key is unique.
func PrimaryKeyDuplicates(ctx context.Context, db *sql.DB, table, key string) (int64, error) {
	q := fmt.Sprintf(`SELECT count(*) - count(DISTINCT %s) FROM %s;`, key, table)
	var n int64
	if err := db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("pk check %s.%s: %w", table, key, err)
	}
	return n, nil
}

// ForeignKeyOrphans counts fact rows whose surrogate key has no match
// in the dimension table. Zero means the foreign key is complete.
func ForeignKeyOrphans(ctx context.Context, db *sql.DB, fact, dim, key string) (int64, error) {
	q := fmt.Sprintf(
		`SELECT count(*) FROM %s f LEFT JOIN %s d USING (%s) WHERE d.%s IS NULL;`,
		fact, dim, key, key,
	)
	var n int64
	if err := db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("fk check %s -> %s (%s): %w", fact, dim, key, err)
	}
	return n, nil
}

// RunChecks executes the full integrity suite against the warehouse.
func RunChecks(ctx context.Context, db *sql.DB) ([]CheckResult, error) {
	var out []CheckResult

	pkChecks := []struct{ table, key string }{
		{TableDimCommune, KeyCommune},
		{TableDimReseau, KeyReseau},
		{TableDimParametre, KeyParametre},
	}
	for _, c := range pkChecks {
		n, err := PrimaryKeyDuplicates(ctx, db, c.table, c.key)
		if err != nil {
			return out, err
		}
		out = append(out, CheckResult{
			Name:       fmt.Sprintf("%s.%s unique", c.table, c.key),
			Violations: n,
		})
	}

	fkChecks := []struct{ fact, dim, key string }{
		{TableFactPrelevement, TableDimCommune, KeyCommune},
		{TableFactPrelevement, TableDimReseau, KeyReseau},
		{TableFactResultat, TableDimParametre, KeyParametre},
	}
	for _, c := range fkChecks {
		n, err := ForeignKeyOrphans(ctx, db, c.fact, c.dim, c.key)
		if err != nil {
			return out, err
		}
		out = append(out, CheckResult{
			Name:       fmt.Sprintf("%s -> %s (%s) complete", c.fact, c.dim, c.key),
			Violations: n,
		})
	}

	return out, nil
}
