package warehouse

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestWarehouse(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE dim_commune (commune_sk INTEGER, nom VARCHAR);`,
		`CREATE TABLE dim_reseau (reseau_sk INTEGER, nom VARCHAR);`,
		`CREATE TABLE dim_parametre (parametre_sk INTEGER, libelle VARCHAR);`,
		`CREATE TABLE fact_prelevement (commune_sk INTEGER, reseau_sk INTEGER, referenceprel VARCHAR);`,
		`CREATE TABLE fact_resultat (parametre_sk INTEGER, valtraduite DOUBLE);`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return db
}

func TestRunChecksCleanWarehouse(t *testing.T) {
	db := openTestWarehouse(t)
	_, err := db.Exec(`INSERT INTO dim_commune VALUES (1, 'PARIS'), (2, 'LYON');`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO dim_reseau VALUES (1, 'RESEAU A');`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO dim_parametre VALUES (1, 'pH');`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO fact_prelevement VALUES (1, 1, 'P1'), (2, 1, 'P2');`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO fact_resultat VALUES (1, 7.9);`)
	require.NoError(t, err)

	results, err := RunChecks(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for _, r := range results {
		assert.True(t, r.OK(), "%s reported %d violations", r.Name, r.Violations)
	}
}

func TestPrimaryKeyDuplicates(t *testing.T) {
	db := openTestWarehouse(t)
	_, err := db.Exec(`INSERT INTO dim_commune VALUES (1, 'PARIS'), (1, 'PARIS BIS'), (2, 'LYON');`)
	require.NoError(t, err)

	n, err := PrimaryKeyDuplicates(context.Background(), db, TableDimCommune, KeyCommune)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestForeignKeyOrphans(t *testing.T) {
	db := openTestWarehouse(t)
	_, err := db.Exec(`INSERT INTO dim_parametre VALUES (1, 'pH');`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO fact_resultat VALUES (1, 7.9), (99, 0.5), (98, 1.1);`)
	require.NoError(t, err)

	n, err := ForeignKeyOrphans(context.Background(), db, TableFactResultat, TableDimParametre, KeyParametre)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRunChecksReportsViolations(t *testing.T) {
	db := openTestWarehouse(t)
	_, err := db.Exec(`INSERT INTO dim_commune VALUES (1, 'PARIS');`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO fact_prelevement VALUES (1, 42, 'P1');`)
	require.NoError(t, err)

	results, err := RunChecks(context.Background(), db)
	require.NoError(t, err)

	var failed int
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	assert.Equal(t, 1, failed, "only the prelevement -> reseau key is orphaned")
}
