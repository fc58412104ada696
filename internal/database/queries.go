package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, time.DateTime, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

// =============================================================================
// Coefficient Table Queries
// =============================================================================

// ReplacePeriodicTerms stores terms under name, replacing any table already
// stored under it. The whole replacement happens in one transaction.
func (db *DB) ReplacePeriodicTerms(ctx context.Context, name, source string, terms astro.PeriodicTerms) (*CoefficientTable, error) {
	if name == "" {
		return nil, errors.New("table name is required")
	}

	table := &CoefficientTable{Name: name, Source: source, TermCount: terms.Len()}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM coefficient_tables WHERE name = ?", name); err != nil {
			return fmt.Errorf("delete previous table: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO coefficient_tables (name, source, term_count) VALUES (?, ?, ?)",
			name, source, table.TermCount,
		)
		if err != nil {
			return fmt.Errorf("insert table: %w", err)
		}
		if table.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("table id: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO periodic_terms (table_id, series, position, a, b, c) VALUES (?, ?, ?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("prepare term insert: %w", err)
		}
		defer stmt.Close()

		for series, rows := range terms {
			for position, term := range rows {
				if _, err := stmt.ExecContext(ctx, table.ID, series, position, term.A, term.B, term.C); err != nil {
					return fmt.Errorf("insert L%d term %d: %w", series, position, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	db.logger.Info("coefficient table stored",
		"name", name,
		"source", source,
		"terms", table.TermCount,
	)

	return table, nil
}

// GetCoefficientTable returns the catalog entry for name.
// Returns ErrNotFound if no table is stored under it.
func (db *DB) GetCoefficientTable(ctx context.Context, name string) (*CoefficientTable, error) {
	query := `
		SELECT id, name, source, term_count, created_at
		FROM coefficient_tables
		WHERE name = ?
	`

	var table CoefficientTable
	var createdAt sql.NullString
	err := db.QueryRowContext(ctx, query, name).Scan(
		&table.ID,
		&table.Name,
		&table.Source,
		&table.TermCount,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query coefficient table: %w", err)
	}
	table.CreatedAt = parseTimestamp(createdAt)

	return &table, nil
}

// ListCoefficientTables returns every stored table, ordered by name.
func (db *DB) ListCoefficientTables(ctx context.Context) ([]CoefficientTable, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, source, term_count, created_at
		FROM coefficient_tables
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query coefficient tables: %w", err)
	}
	defer rows.Close()

	tables := []CoefficientTable{}
	for rows.Next() {
		var table CoefficientTable
		var createdAt sql.NullString
		if err := rows.Scan(&table.ID, &table.Name, &table.Source, &table.TermCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan coefficient table: %w", err)
		}
		table.CreatedAt = parseTimestamp(createdAt)
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coefficient tables: %w", err)
	}

	return tables, nil
}

// LoadPeriodicTerms reads the terms stored under name.
// Returns ErrNotFound if no table is stored under it.
func (db *DB) LoadPeriodicTerms(ctx context.Context, name string) (astro.PeriodicTerms, error) {
	var terms astro.PeriodicTerms

	table, err := db.GetCoefficientTable(ctx, name)
	if err != nil {
		return terms, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT series, a, b, c
		FROM periodic_terms
		WHERE table_id = ?
		ORDER BY series, position
	`, table.ID)
	if err != nil {
		return terms, fmt.Errorf("query periodic terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var series int
		var term astro.Term
		if err := rows.Scan(&series, &term.A, &term.B, &term.C); err != nil {
			return terms, fmt.Errorf("scan periodic term: %w", err)
		}
		if series < 0 || series >= len(terms) {
			return terms, fmt.Errorf("periodic term in series %d out of range", series)
		}
		terms[series] = append(terms[series], term)
	}
	if err := rows.Err(); err != nil {
		return terms, fmt.Errorf("iterate periodic terms: %w", err)
	}

	return terms, nil
}

// DeleteCoefficientTable removes the table stored under name and its terms.
// Returns ErrNotFound if no table is stored under it.
func (db *DB) DeleteCoefficientTable(ctx context.Context, name string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM coefficient_tables WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete coefficient table: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
