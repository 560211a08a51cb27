package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/config"
)

var (
	// Config flags - bound in init()
	endpoint       string
	accessKey      string
	secretKey      string
	bucket         string
	useSSL         bool
	archiveURLs    []string
	overwrite      bool
	chunkRows      int
	forceDelimiter string
	forceEncoding  string
	httpTimeout    time.Duration
	logFormat      string
	logLevel       string
	logOutput      string

	// Global instances populated in PersistentPreRunE
	rootLogger *slog.Logger
	appConfig  config.Config
	appStore   blob.Store
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eauparquet",
	Short: "Ingest French drinking-water-quality archives into object storage as Parquet.",
	Long: `Eauparquet ingests the yearly dis-<year>-dept.zip archives published on
data.gouv.fr into S3-compatible object storage, unpacks them, and assembles
the DIS_PLV and DIS_RESULT text files of each year into Parquet extracts.

Each stage is resumable: a _SUCCESS marker per unit of work records
completion, and units whose marker exists are never re-processed.

The primary command is 'run', which executes fetch, extract and both
tabulate pipelines in order. Stages can also be run individually, and
'validate' checks the downstream warehouse's referential integrity.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --- 1. Initialize Logger ---
		var level slog.Level
		switch strings.ToLower(logLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var logWriter io.Writer = os.Stderr
		if logOutput != "" && strings.ToLower(logOutput) != "stderr" {
			if strings.ToLower(logOutput) == "stdout" {
				logWriter = os.Stdout
			} else {
				f, err := os.OpenFile(logOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file %s: %w", logOutput, err)
				}
				// The OS reclaims the handle on exit; fine for a CLI.
				logWriter = f
			}
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(logWriter, opts)
		} else {
			handler = slog.NewTextHandler(logWriter, opts)
		}
		rootLogger = slog.New(handler)
		slog.SetDefault(rootLogger)

		// --- 2. Build Config (flags over environment defaults) ---
		appConfig = config.Default()
		if endpoint != "" {
			appConfig.Endpoint = endpoint
		}
		if accessKey != "" {
			appConfig.AccessKey = accessKey
		}
		if secretKey != "" {
			appConfig.SecretKey = secretKey
		}
		if bucket != "" {
			appConfig.Bucket = bucket
		}
		appConfig.UseSSL = useSSL
		if len(archiveURLs) > 0 {
			appConfig.ArchiveURLs = archiveURLs
		}
		appConfig.Overwrite = overwrite
		appConfig.ChunkRows = chunkRows
		appConfig.ForceDelimiter = forceDelimiter
		appConfig.ForceEncoding = forceEncoding
		appConfig.HTTPTimeout = httpTimeout

		rootLogger.Debug("Configuration loaded",
			slog.String("endpoint", appConfig.Endpoint),
			slog.String("bucket", appConfig.Bucket),
			slog.Int("chunk_rows", appConfig.ChunkRows),
		)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appStore != nil {
			return appStore.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(tabulateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		if rootLogger != nil {
			rootLogger.Error("Command execution failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Storage endpoint host:port (default $EAU_STORAGE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&accessKey, "access-key", "", "Storage access key (default $EAU_STORAGE_ACCESS_KEY)")
	rootCmd.PersistentFlags().StringVar(&secretKey, "secret-key", "", "Storage secret key (default $EAU_STORAGE_SECRET_KEY)")
	rootCmd.PersistentFlags().StringVar(&bucket, "bucket", "", "Storage bucket holding the raw area (default $EAU_STORAGE_BUCKET)")
	rootCmd.PersistentFlags().BoolVar(&useSSL, "use-ssl", true, "Use TLS to reach the storage endpoint")
	rootCmd.PersistentFlags().StringSliceVar(&archiveURLs, "url", nil, "Archive URL to fetch (can specify multiple; defaults to the published dis-<year>-dept.zip list)")
	rootCmd.PersistentFlags().BoolVar(&overwrite, "overwrite", false, "Re-fetch archives even when the destination object exists")
	rootCmd.PersistentFlags().IntVar(&chunkRows, "chunk-rows", config.DefaultChunkRows, "Rows per parquet part file (0 or less writes a single part)")
	rootCmd.PersistentFlags().StringVar(&forceDelimiter, "delimiter", "", "Fixed field delimiter (default: sniffed per file)")
	rootCmd.PersistentFlags().StringVar(&forceEncoding, "encoding", "", "Fixed source encoding, utf-8 or latin-1 (default: fallback chain)")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "http-timeout", config.DefaultHTTPTimeout, "Timeout per archive download request")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "Log output destination (stderr, stdout, or file path)")

	rootCmd.Version = "0.3.0"
}

func getLogger() *slog.Logger {
	if rootLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return rootLogger
}

func getConfig() config.Config {
	return appConfig
}

// getStore lazily connects to the storage backend. Commands that never
// touch storage (e.g. validate --warehouse only) skip the connection.
func getStore() (blob.Store, error) {
	if appStore != nil {
		return appStore, nil
	}
	s, err := blob.NewMinioStore(appConfig)
	if err != nil {
		return nil, err
	}
	appStore = s
	return appStore, nil
}
