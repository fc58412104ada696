// Package ephemeris loads the VSOP87 periodic-term tables that drive the
// high-precision solar calculator.
//
// The on-disk format is the one distributed with VSOP87: each series opens
// with a header line carrying a "*T**n" marker and every data line ends with
// the A, B and C coefficients. Sections past the sixth (the B and R variables
// in a full VSOP87D file) are ignored.
package ephemeris

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zapponejosh/amlich-api/internal/astro"
)

const sectionMarker = "*T**"

// ErrMalformed is returned for a coefficient line that cannot be parsed.
var ErrMalformed = errors.New("malformed coefficient table")

// Parse reads a VSOP87 longitude table. Lines before the first section
// marker and blank lines are skipped.
func Parse(r io.Reader) (astro.PeriodicTerms, error) {
	var terms astro.PeriodicTerms

	scanner := bufio.NewScanner(r)
	section := -1
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, sectionMarker) {
			section++
			continue
		}
		if section < 0 || section >= len(terms) {
			continue
		}

		term, err := parseTerm(line)
		if err != nil {
			return astro.PeriodicTerms{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		terms[section] = append(terms[section], term)
	}
	if err := scanner.Err(); err != nil {
		return astro.PeriodicTerms{}, fmt.Errorf("read coefficients: %w", err)
	}

	if len(terms[0]) == 0 {
		return astro.PeriodicTerms{}, fmt.Errorf("no L0 terms: %w", ErrMalformed)
	}
	return terms, nil
}

func parseTerm(line string) (astro.Term, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return astro.Term{}, fmt.Errorf("want at least 3 fields, got %d: %w", len(fields), ErrMalformed)
	}

	var abc [3]float64
	for i, f := range fields[len(fields)-3:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return astro.Term{}, fmt.Errorf("coefficient %q: %w", f, ErrMalformed)
		}
		abc[i] = v
	}
	return astro.Term{A: abc[0], B: abc[1], C: abc[2]}, nil
}
