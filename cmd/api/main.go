// Package main is the entry point for the Âm lịch API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapponejosh/amlich-api/internal/api"
	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/config"
	"github.com/zapponejosh/amlich-api/internal/database"
	"github.com/zapponejosh/amlich-api/internal/engine"
	"github.com/zapponejosh/amlich-api/internal/ephemeris"
	"github.com/zapponejosh/amlich-api/internal/logger"
	"github.com/zapponejosh/amlich-api/internal/metrics"
	"github.com/zapponejosh/amlich-api/internal/warmup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	log.Info("starting amlich API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("solar", cfg.SolarCalculator),
		slog.String("coefficients", cfg.CoefficientsSource),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("amlich API stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// =========================================================================
	// Coefficients
	// =========================================================================
	var db *database.DB
	if cfg.CoefficientsSource == config.SourceSQLite {
		db, err = database.Open(database.DefaultConfig(cfg.DatabasePath), log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if _, err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	terms, err := loadTerms(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	// =========================================================================
	// Engine
	// =========================================================================
	m := metrics.New()

	eng, err := engine.Build(engine.DefaultRegistry(), engine.Selection{
		Solar:    cfg.SolarCalculator,
		DeltaT:   cfg.DeltaT,
		Calendar: cfg.Calendar,
	}, terms,
		calendar.WithRecorder(m),
		calendar.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	var warmer *warmup.Warmer
	if converter, ok := eng.Lunisolar(); ok {
		warmer = warmup.New(converter, []*time.Location{loc}, cfg.WarmupSpan,
			warmup.WithLogger(log),
			warmup.WithObserver(m),
		)
		if cfg.WarmupSchedule != "" {
			if err := warmer.Start(cfg.WarmupSchedule); err != nil {
				return fmt.Errorf("start warm-up: %w", err)
			}
			defer func() { <-warmer.Stop().Done() }()
		}
	}

	// =========================================================================
	// HTTP server
	// =========================================================================
	handlers, err := api.NewHandlers(api.Deps{
		Engine: eng,
		DB:     db,
		Warmer: warmer,
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, m, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("amlich API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadTerms reads the VSOP87 table from the configured source. The Meeus
// calculator needs none.
func loadTerms(ctx context.Context, cfg *config.Config, db *database.DB, log *slog.Logger) (*astro.PeriodicTerms, error) {
	if cfg.SolarCalculator == engine.SolarMeeus {
		return nil, nil
	}

	var source ephemeris.Source
	switch cfg.CoefficientsSource {
	case config.SourceFile:
		source = ephemeris.FileSource{Path: cfg.CoefficientsPath}
	case config.SourceSQLite:
		source = database.CoefficientSource{DB: db, Table: database.DefaultTableName}
	case config.SourceS3:
		s3Source, err := ephemeris.NewS3Source(ctx, ephemeris.S3Config{
			Bucket:    cfg.S3.Bucket,
			Key:       cfg.S3.Key,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		source = s3Source
	default:
		source = ephemeris.EmbeddedSource{}
	}

	start := time.Now()
	terms, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coefficients from %s: %w", source.Name(), err)
	}
	log.Info("coefficients loaded",
		slog.String("source", source.Name()),
		slog.Int("terms", terms.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &terms, nil
}
