package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
// Each migration should be idempotent (safe to run multiple times).
var migrationsSQL = map[int]string{
	1: migrationV1CoefficientTables,
	2: migrationV2PeriodicTerms,
}

// migrationV1CoefficientTables creates the catalog of imported tables.
//
// A table is addressed by name ("vsop87d-earth" by default) so a full
// table and an abridged one can live side by side; the server loads the
// one named in its configuration.
const migrationV1CoefficientTables = `
-- Migration 001: coefficient table catalog

CREATE TABLE IF NOT EXISTS coefficient_tables (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Lookup name, unique
    name TEXT NOT NULL UNIQUE,

    -- Where the table was imported from (file path or s3:// URL)
    source TEXT NOT NULL DEFAULT '',

    -- Total number of terms across all series
    term_count INTEGER NOT NULL DEFAULT 0,

    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// migrationV2PeriodicTerms stores the terms themselves.
//
// One row per term A*cos(B + C*t). series is the power of t (0..5) and
// position keeps the file order, which is also the order of decreasing
// amplitude in VSOP87 files.
const migrationV2PeriodicTerms = `
-- Migration 002: periodic terms

CREATE TABLE IF NOT EXISTS periodic_terms (
    table_id INTEGER NOT NULL,
    series INTEGER NOT NULL CHECK (series BETWEEN 0 AND 5),
    position INTEGER NOT NULL,

    a REAL NOT NULL,
    b REAL NOT NULL,
    c REAL NOT NULL,

    PRIMARY KEY (table_id, series, position),
    FOREIGN KEY (table_id) REFERENCES coefficient_tables(id) ON DELETE CASCADE
);
`
