package database

import (
	"context"
	"fmt"

	"github.com/zapponejosh/amlich-api/internal/astro"
)

// CoefficientSource loads a named table from the database. It satisfies
// ephemeris.Source.
type CoefficientSource struct {
	DB    *DB
	Table string
}

// Load reads the table.
func (s CoefficientSource) Load(ctx context.Context) (astro.PeriodicTerms, error) {
	terms, err := s.DB.LoadPeriodicTerms(ctx, s.Table)
	if err != nil {
		return astro.PeriodicTerms{}, fmt.Errorf("load coefficient table %q: %w", s.Table, err)
	}
	return terms, nil
}

// Name identifies the source in logs.
func (s CoefficientSource) Name() string { return "sqlite:" + s.Table }
