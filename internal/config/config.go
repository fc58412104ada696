// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zones must resolve on hosts without a tz database

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Calendar
	DefaultZone     string // IANA zone used when a request names none
	SolarCalculator string // vsop87, meeus
	DeltaT          string // espenak-meeus, none
	Calendar        string // registered calendar id

	// Coefficient table
	CoefficientsSource string // embedded, file, sqlite, s3
	CoefficientsPath   string // file path when source is file
	DatabasePath       string // SQLite file when source is sqlite
	S3                 S3Config

	// Warm-up
	WarmupSchedule string // cron spec; empty disables
	WarmupSpan     int    // years either side of the current one

	// Authentication
	AdminAPIKey string // guards admin endpoints

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// S3Config locates a coefficient file in an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Coefficient sources
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourceS3       = "s3"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	// This is a no-op in production where env vars are set directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Calendar
	cfg.DefaultZone = getEnv("DEFAULT_ZONE", "Asia/Ho_Chi_Minh")
	cfg.SolarCalculator = getEnv("SOLAR_CALCULATOR", "vsop87")
	cfg.DeltaT = getEnv("DELTA_T", "espenak-meeus")
	cfg.Calendar = getEnv("CALENDAR", "Default")

	// Coefficient table
	cfg.CoefficientsSource = getEnv("COEFFICIENTS_SOURCE", SourceEmbedded)
	cfg.CoefficientsPath = getEnv("COEFFICIENTS_PATH", "")
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/amlich.db")
	cfg.S3 = S3Config{
		Bucket:    getEnv("COEFFICIENTS_S3_BUCKET", ""),
		Key:       getEnv("COEFFICIENTS_S3_KEY", ""),
		Region:    getEnv("COEFFICIENTS_S3_REGION", ""),
		Endpoint:  getEnv("COEFFICIENTS_S3_ENDPOINT", ""),
		PathStyle: strings.EqualFold(getEnv("COEFFICIENTS_S3_PATH_STYLE", ""), "true"),
	}

	// Warm-up (an explicitly empty schedule disables it)
	cfg.WarmupSchedule = getEnvAllowEmpty("WARMUP_SCHEDULE", "@daily")
	cfg.WarmupSpan = getEnvInt("WARMUP_SPAN", 2)

	// Authentication
	cfg.AdminAPIKey = getEnv("ADMIN_API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	// Validate port range
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	// Validate environment
	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	// The default zone must resolve against the tz database
	if c.DefaultZone == "" {
		errs = append(errs, errors.New("DEFAULT_ZONE is required"))
	} else if _, err := time.LoadLocation(c.DefaultZone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_ZONE %q: %w", c.DefaultZone, err))
	}

	// Strategy names are checked against the registry at startup; here they
	// only need to be present
	if c.SolarCalculator == "" {
		errs = append(errs, errors.New("SOLAR_CALCULATOR is required"))
	}
	if c.DeltaT == "" {
		errs = append(errs, errors.New("DELTA_T is required"))
	}
	if c.Calendar == "" {
		errs = append(errs, errors.New("CALENDAR is required"))
	}

	// Validate coefficient source and its settings
	switch c.CoefficientsSource {
	case SourceEmbedded:
	case SourceFile:
		if c.CoefficientsPath == "" {
			errs = append(errs, errors.New("COEFFICIENTS_PATH is required when COEFFICIENTS_SOURCE=file"))
		}
	case SourceSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required when COEFFICIENTS_SOURCE=sqlite"))
		}
	case SourceS3:
		if c.S3.Bucket == "" || c.S3.Key == "" {
			errs = append(errs, errors.New("COEFFICIENTS_S3_BUCKET and COEFFICIENTS_S3_KEY are required when COEFFICIENTS_SOURCE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("COEFFICIENTS_SOURCE must be one of: embedded, file, sqlite, s3; got %q", c.CoefficientsSource))
	}

	if c.WarmupSpan < 0 {
		errs = append(errs, fmt.Errorf("WARMUP_SPAN must not be negative, got %d", c.WarmupSpan))
	}

	// Admin key is required in production
	if c.Env == EnvProduction && c.AdminAPIKey == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY is required in production"))
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	// Validate log format
	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Location loads the default zone. Validate has already checked it.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.DefaultZone)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnv, except a variable set to "" stays empty.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
