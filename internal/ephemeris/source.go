package ephemeris

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/zapponejosh/amlich-api/internal/astro"
)

// Source supplies a coefficient table. Implementations are called once at
// startup; the returned table is treated as read-only.
type Source interface {
	Load(ctx context.Context) (astro.PeriodicTerms, error)
	Name() string
}

//go:embed data/VSOP87D_Earth.txt
var embeddedEarth string

var parseEmbedded = sync.OnceValues(func() (astro.PeriodicTerms, error) {
	return Parse(strings.NewReader(embeddedEarth))
})

// Embedded returns the abridged Earth table compiled into the binary.
func Embedded() (astro.PeriodicTerms, error) {
	return parseEmbedded()
}

// EmbeddedSource serves the compiled-in table.
type EmbeddedSource struct{}

// Load implements Source.
func (EmbeddedSource) Load(context.Context) (astro.PeriodicTerms, error) { return Embedded() }

// Name implements Source.
func (EmbeddedSource) Name() string { return "embedded" }

// FileSource reads a table from the local filesystem.
type FileSource struct {
	Path string
}

// Load implements Source.
func (f FileSource) Load(context.Context) (astro.PeriodicTerms, error) {
	return LoadFile(f.Path)
}

// Name implements Source.
func (f FileSource) Name() string { return "file:" + f.Path }

// LoadFile parses the table at path.
func LoadFile(path string) (astro.PeriodicTerms, error) {
	file, err := os.Open(path)
	if err != nil {
		return astro.PeriodicTerms{}, fmt.Errorf("open coefficients: %w", err)
	}
	defer file.Close()

	terms, err := Parse(file)
	if err != nil {
		return astro.PeriodicTerms{}, fmt.Errorf("%s: %w", path, err)
	}
	return terms, nil
}
