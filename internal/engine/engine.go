// Package engine selects the astronomical strategies and calendar the
// service runs with. Strategies are registered by name and resolved once at
// startup.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// Built-in strategy names.
const (
	SolarVSOP87        = "vsop87"
	SolarMeeus         = "meeus"
	DeltaTEspenakMeeus = "espenak-meeus"
	DeltaTNone         = "none"
)

// Engine errors.
var (
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrDuplicateStrategy = errors.New("strategy already registered")
	ErrMissingTerms      = errors.New("coefficient table required")
)

// SolarFactory builds a solar calculator. terms is nil when no coefficient
// table was loaded.
type SolarFactory func(terms *astro.PeriodicTerms) (astro.SolarCalculator, error)

// DeltaTFactory builds a ΔT estimator.
type DeltaTFactory func() timescale.Estimator

// CalendarFactory builds a calendar over the selected solar and lunar
// services.
type CalendarFactory func(solar *astro.SolarTime, lunar *astro.LunarTime, opts ...calendar.Option) calendar.Calendar

// Registry holds the named factories. It is populated before Build and not
// modified afterwards.
type Registry struct {
	solar     map[string]SolarFactory
	deltaT    map[string]DeltaTFactory
	calendars map[string]CalendarFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		solar:     make(map[string]SolarFactory),
		deltaT:    make(map[string]DeltaTFactory),
		calendars: make(map[string]CalendarFactory),
	}
}

// DefaultRegistry returns a registry holding the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.RegisterSolar(SolarVSOP87, newVSOP87)
	_ = r.RegisterSolar(SolarMeeus, func(*astro.PeriodicTerms) (astro.SolarCalculator, error) {
		return astro.Meeus{}, nil
	})
	_ = r.RegisterDeltaT(DeltaTEspenakMeeus, func() timescale.Estimator { return timescale.EspenakMeeus{} })
	_ = r.RegisterDeltaT(DeltaTNone, func() timescale.Estimator { return timescale.NoOp{} })
	_ = r.RegisterCalendar(calendar.DefaultID, func(solar *astro.SolarTime, lunar *astro.LunarTime, opts ...calendar.Option) calendar.Calendar {
		return calendar.NewLunisolar(solar, lunar, opts...)
	})
	return r
}

func newVSOP87(terms *astro.PeriodicTerms) (astro.SolarCalculator, error) {
	if terms == nil {
		return nil, fmt.Errorf("%s: %w", SolarVSOP87, ErrMissingTerms)
	}
	return astro.NewVSOP87(*terms)
}

// RegisterSolar adds a solar calculator factory.
func (r *Registry) RegisterSolar(name string, f SolarFactory) error {
	return register(r.solar, "solar calculator", name, f)
}

// RegisterDeltaT adds a ΔT estimator factory.
func (r *Registry) RegisterDeltaT(name string, f DeltaTFactory) error {
	return register(r.deltaT, "delta-t estimator", name, f)
}

// RegisterCalendar adds a calendar factory.
func (r *Registry) RegisterCalendar(id string, f CalendarFactory) error {
	return register(r.calendars, "calendar", id, f)
}

// SolarNames returns the registered solar calculator names, sorted.
func (r *Registry) SolarNames() []string { return names(r.solar) }

// DeltaTNames returns the registered ΔT estimator names, sorted.
func (r *Registry) DeltaTNames() []string { return names(r.deltaT) }

// CalendarIDs returns the registered calendar ids, sorted.
func (r *Registry) CalendarIDs() []string { return names(r.calendars) }

func register[F any](m map[string]F, kind, name string, f F) error {
	if name == "" {
		return fmt.Errorf("%s name is empty", kind)
	}
	if _, exists := m[name]; exists {
		return fmt.Errorf("%s %q: %w", kind, name, ErrDuplicateStrategy)
	}
	m[name] = f
	return nil
}

func lookup[F any](m map[string]F, kind, name string) (F, error) {
	f, ok := m[name]
	if !ok {
		var zero F
		return zero, fmt.Errorf("%s %q: %w", kind, name, ErrUnknownStrategy)
	}
	return f, nil
}

func names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Selection names the strategies to run with.
type Selection struct {
	Solar    string
	DeltaT   string
	Calendar string

	// MaxScanSteps bounds lunar phase searches; zero selects the default.
	MaxScanSteps int
}

// DefaultSelection is VSOP87 with the Espenak-Meeus ΔT and the Vietnamese
// calendar.
func DefaultSelection() Selection {
	return Selection{
		Solar:    SolarVSOP87,
		DeltaT:   DeltaTEspenakMeeus,
		Calendar: calendar.DefaultID,
	}
}

// Engine is the resolved set of services.
type Engine struct {
	Selection Selection
	DeltaT    timescale.DeltaT
	SolarTime *astro.SolarTime
	LunarTime *astro.LunarTime

	// Calendar is the selected calendar; Calendars holds every registered one
	// built over the same services.
	Calendar  calendar.Calendar
	Calendars *calendar.Registry
}

// Build resolves sel against reg. terms may be nil when the selected solar
// calculator does not need a coefficient table. opts are applied to every
// calendar.
func Build(reg *Registry, sel Selection, terms *astro.PeriodicTerms, opts ...calendar.Option) (*Engine, error) {
	solarFactory, err := lookup(reg.solar, "solar calculator", sel.Solar)
	if err != nil {
		return nil, err
	}
	deltaTFactory, err := lookup(reg.deltaT, "delta-t estimator", sel.DeltaT)
	if err != nil {
		return nil, err
	}
	if _, err := lookup(reg.calendars, "calendar", sel.Calendar); err != nil {
		return nil, err
	}

	calc, err := solarFactory(terms)
	if err != nil {
		return nil, fmt.Errorf("build solar calculator: %w", err)
	}

	dt := timescale.NewDeltaT(deltaTFactory())
	solar := astro.NewSolarTime(calc, dt)
	lunar := astro.NewLunarTime(dt, sel.MaxScanSteps)

	calendars, err := calendar.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, id := range reg.CalendarIDs() {
		c := reg.calendars[id](solar, lunar, opts...)
		if c.ID() != id {
			return nil, fmt.Errorf("calendar registered as %q reports id %q", id, c.ID())
		}
		if err := calendars.Register(c); err != nil {
			return nil, err
		}
	}

	selected, err := calendars.Get(sel.Calendar)
	if err != nil {
		return nil, err
	}

	slog.Debug("engine built",
		"solar", sel.Solar,
		"delta_t", sel.DeltaT,
		"calendar", sel.Calendar,
	)

	return &Engine{
		Selection: sel,
		DeltaT:    dt,
		SolarTime: solar,
		LunarTime: lunar,
		Calendar:  selected,
		Calendars: calendars,
	}, nil
}

// Lunisolar returns the selected calendar as the built-in converter, or
// false when a different implementation is selected.
func (e *Engine) Lunisolar() (*calendar.Lunisolar, bool) {
	l, ok := e.Calendar.(*calendar.Lunisolar)
	return l, ok
}
