package config

import (
	"os"
	"time"
)

// Default archive URLs published on data.gouv.fr for the
// "resultats du controle sanitaire de l'eau distribuee" datasets.
var DefaultArchiveURLs = []string{
	"https://static.data.gouv.fr/resources/resultats-du-controle-sanitaire-de-leau-distribuee-commune-par-commune/20251001-103424/dis-2025-dept.zip",
	"https://static.data.gouv.fr/resources/resultats-du-controle-sanitaire-de-leau-distribuee-commune-par-commune/20230811-065325/dis-2021-dept.zip",
	"https://static.data.gouv.fr/resources/resultats-du-controle-sanitaire-de-leau-distribuee-commune-par-commune/20230707-102607/dis-2022-dept.zip",
	"https://static.data.gouv.fr/resources/resultats-du-controle-sanitaire-de-leau-distribuee-commune-par-commune/20241014-073334/dis-2023-dept.zip",
	"https://static.data.gouv.fr/resources/resultats-du-controle-sanitaire-de-leau-distribuee-commune-par-commune/20250329-074506/dis-2024-dept.zip",
}

const (
	// DefaultChunkRows is the default row count per parquet part file.
	DefaultChunkRows = 500_000

	// DefaultHTTPTimeout bounds each archive fetch request.
	DefaultHTTPTimeout = 120 * time.Second

	DefaultZipPrefix    = "zip/"
	DefaultUnzipPrefix  = "unzip/"
	DefaultPlvPrefix    = "parquet_plv/"
	DefaultResultPrefix = "parquet_result/"
)

// Config holds all application settings. It is constructed once at
// startup and passed explicitly to each pipeline stage.
type Config struct {
	// Storage backend (S3-compatible).
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// Logical path prefixes inside the bucket.
	ZipPrefix    string
	UnzipPrefix  string
	PlvPrefix    string
	ResultPrefix string

	// Source archives to fetch.
	ArchiveURLs []string

	// Stage options.
	Overwrite      bool          // re-fetch archives whose destination already exists
	ChunkRows      int           // rows per parquet part; <= 0 writes a single part
	ForceDelimiter string        // fixed field delimiter; empty enables sniffing
	ForceEncoding  string        // fixed source encoding; empty enables the fallback chain
	HTTPTimeout    time.Duration

	// Warehouse database queried by the validate command.
	WarehousePath string
}

// Default returns a Config populated with defaults. Credentials and
// endpoint come from the environment so they never appear on a
// command line.
func Default() Config {
	return Config{
		Endpoint:     os.Getenv("EAU_STORAGE_ENDPOINT"),
		AccessKey:    os.Getenv("EAU_STORAGE_ACCESS_KEY"),
		SecretKey:    os.Getenv("EAU_STORAGE_SECRET_KEY"),
		Bucket:       os.Getenv("EAU_STORAGE_BUCKET"),
		ZipPrefix:    DefaultZipPrefix,
		UnzipPrefix:  DefaultUnzipPrefix,
		PlvPrefix:    DefaultPlvPrefix,
		ResultPrefix: DefaultResultPrefix,
		ArchiveURLs:  DefaultArchiveURLs,
		ChunkRows:    DefaultChunkRows,
		HTTPTimeout:  DefaultHTTPTimeout,
	}
}
