package calendar

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/ephemeris"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func newSolarTime(t *testing.T) *astro.SolarTime {
	t.Helper()
	terms, err := ephemeris.Embedded()
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}
	calc, err := astro.NewVSOP87(terms)
	if err != nil {
		t.Fatalf("NewVSOP87() error = %v", err)
	}
	return astro.NewSolarTime(calc, timescale.DefaultDeltaT())
}

func newConverter(t *testing.T, opts ...Option) *Lunisolar {
	t.Helper()
	st := newSolarTime(t)
	return NewLunisolar(st, astro.NewLunarTime(st.DeltaT(), 0), opts...)
}

type countingRecorder struct {
	hits, misses atomic.Int64
}

func (r *countingRecorder) Hit(string)  { r.hits.Add(1) }
func (r *countingRecorder) Miss(string) { r.misses.Add(1) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
