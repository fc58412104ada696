package astro

import (
	"errors"
	"fmt"
	"math"

	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// DefaultMaxScanSteps bounds the lunation scan in Before and After. The
// starting lunation is never more than one or two away from the answer.
const DefaultMaxScanSteps = 64

// meanNewMoonBase seeds the starting lunation estimate.
const meanNewMoonBase = 2451550.09765

// ErrPhaseSearchDiverged is returned when the lunation scan exceeds its
// step budget.
var ErrPhaseSearchDiverged = errors.New("lunar phase search did not converge")

// LunarTime finds the instants of lunar phases around a moment.
type LunarTime struct {
	deltaT   timescale.DeltaT
	maxSteps int
}

// NewLunarTime returns a LunarTime converting moments to TT with dt. A
// maxSteps of zero or less selects DefaultMaxScanSteps.
func NewLunarTime(dt timescale.DeltaT, maxSteps int) *LunarTime {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxScanSteps
	}
	return &LunarTime{deltaT: dt, maxSteps: maxSteps}
}

// Before returns the latest occurrence of phase strictly before anchor.
func (l *LunarTime) Before(anchor timescale.Moment, phase Phase) (timescale.Moment, error) {
	at := anchor.ToEphemeris(l.deltaT).Value()
	n := int64(math.Ceil((at - meanNewMoonBase) / MeanSynodicMonth))

	jde := phase.AtLunation(n)
	for steps := 0; jde >= at; steps++ {
		if steps == l.maxSteps {
			return timescale.Moment{}, fmt.Errorf("%s before %s: %w", phase, anchor, ErrPhaseSearchDiverged)
		}
		n--
		jde = phase.AtLunation(n)
	}

	return timescale.MomentOfJulianDay(timescale.Ephemeris(jde), l.deltaT), nil
}

// After returns the earliest occurrence of phase strictly after anchor.
func (l *LunarTime) After(anchor timescale.Moment, phase Phase) (timescale.Moment, error) {
	at := anchor.ToEphemeris(l.deltaT).Value()
	n := int64(math.Floor((at - meanNewMoonBase) / MeanSynodicMonth))

	jde := phase.AtLunation(n)
	for steps := 0; jde <= at; steps++ {
		if steps == l.maxSteps {
			return timescale.Moment{}, fmt.Errorf("%s after %s: %w", phase, anchor, ErrPhaseSearchDiverged)
		}
		n++
		jde = phase.AtLunation(n)
	}

	return timescale.MomentOfJulianDay(timescale.Ephemeris(jde), l.deltaT), nil
}
