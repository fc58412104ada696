// Command import loads a VSOP87D Earth coefficient table into the SQLite
// database served by COEFFICIENTS_SOURCE=sqlite.
//
// Usage:
//
//	go run ./cmd/import -file data/VSOP87D.ear -db data/amlich.db
//	go run ./cmd/import -s3-bucket tables -s3-key vsop87/VSOP87D.ear -db data/amlich.db
//
// This tool:
// 1. Reads the table from a local file or an S3 object
// 2. Creates/opens the SQLite database and runs migrations
// 3. Replaces the named table's terms in a single transaction
//
// Running it again with the same -name overwrites the stored table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/database"
	"github.com/zapponejosh/amlich-api/internal/ephemeris"
)

type options struct {
	filePath string
	s3       ephemeris.S3Config
	dbPath   string
	name     string
}

func main() {
	// Parse command line flags
	var opts options
	flag.StringVar(&opts.filePath, "file", "", "Path to a VSOP87D Earth table")
	flag.StringVar(&opts.s3.Bucket, "s3-bucket", "", "S3 bucket holding the table")
	flag.StringVar(&opts.s3.Key, "s3-key", "", "S3 object key of the table")
	flag.StringVar(&opts.s3.Region, "s3-region", "", "S3 region (default us-east-1)")
	flag.StringVar(&opts.s3.Endpoint, "s3-endpoint", "", "S3-compatible endpoint, e.g. MinIO")
	flag.BoolVar(&opts.s3.PathStyle, "s3-path-style", false, "Use path-style S3 addressing")
	flag.StringVar(&opts.dbPath, "db", "data/amlich.db", "Path to SQLite database")
	flag.StringVar(&opts.name, "name", database.DefaultTableName, "Name to store the table under")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if (opts.filePath == "") == (opts.s3.Bucket == "") {
		logger.Error("exactly one of -file or -s3-bucket is required")
		flag.Usage()
		os.Exit(2)
	}

	// Run import
	if err := run(opts, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(opts options, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse the table
	// =========================================================================
	source, err := newSource(ctx, opts)
	if err != nil {
		return err
	}
	logger.Info("reading coefficient table", slog.String("source", source.Name()))

	terms, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}

	logger.Info("parsed table", seriesAttrs(&terms)...)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", opts.dbPath))

	db, err := database.Open(database.DefaultConfig(opts.dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Store the terms
	// =========================================================================
	table, err := db.ReplacePeriodicTerms(ctx, opts.name, source.Name(), terms)
	if err != nil {
		return fmt.Errorf("store table: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	stored, err := db.LoadPeriodicTerms(ctx, table.Name)
	if err != nil {
		return fmt.Errorf("reload table: %w", err)
	}
	if stored.Len() != terms.Len() {
		return fmt.Errorf("stored %d terms, parsed %d", stored.Len(), terms.Len())
	}

	elapsed := time.Since(startTime)

	logger.Info("import verified",
		slog.String("table", table.Name),
		slog.Int("terms", table.TermCount),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Table:               %s\n", table.Name)
	fmt.Printf("Source:              %s\n", table.Source)
	for i, series := range terms {
		fmt.Printf("Series L%d:           %d terms\n", i, len(series))
	}
	fmt.Printf("Total terms:         %d\n", table.TermCount)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

func newSource(ctx context.Context, opts options) (ephemeris.Source, error) {
	if opts.filePath != "" {
		return ephemeris.FileSource{Path: opts.filePath}, nil
	}
	source, err := ephemeris.NewS3Source(ctx, opts.s3)
	if err != nil {
		return nil, fmt.Errorf("s3 source: %w", err)
	}
	return source, nil
}

func seriesAttrs(terms *astro.PeriodicTerms) []any {
	attrs := make([]any, 0, len(terms)+1)
	for i, series := range terms {
		attrs = append(attrs, slog.Int(fmt.Sprintf("l%d", i), len(series)))
	}
	return append(attrs, slog.Int("total", terms.Len()))
}
