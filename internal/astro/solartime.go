package astro

import (
	"math"

	"github.com/zapponejosh/amlich-api/internal/timescale"
)

const (
	// SunMeanRate is the Sun's mean motion along the ecliptic, degrees per day.
	SunMeanRate = 0.98564736

	solverTolerance  = 1e-5
	solverIterations = 10
)

// SolarTime answers solar-longitude questions about moments.
type SolarTime struct {
	calc   SolarCalculator
	deltaT timescale.DeltaT
}

// NewSolarTime returns a SolarTime over calc, converting moments to TT with dt.
func NewSolarTime(calc SolarCalculator, dt timescale.DeltaT) *SolarTime {
	return &SolarTime{calc: calc, deltaT: dt}
}

// DeltaT returns the ΔT model used for TT conversion.
func (s *SolarTime) DeltaT() timescale.DeltaT { return s.deltaT }

// ApparentLongitudeAt returns the Sun's apparent longitude at m in degrees.
func (s *SolarTime) ApparentLongitudeAt(m timescale.Moment) float64 {
	return s.calc.ApparentLongitude(m.ToEphemeris(s.deltaT).Value())
}

// AtLongitude returns the moment near anchor at which the Sun's apparent
// longitude reaches target degrees.
//
// The solver steps at the mean solar rate and stops once the residual is
// below 1e-5 degrees or after 10 iterations, whichever comes first. The best
// estimate is returned either way; with both shipped calculators it converges
// in three or four steps for anchors within a few weeks of the answer.
func (s *SolarTime) AtLongitude(target float64, anchor timescale.Moment) timescale.Moment {
	jde := anchor.ToEphemeris(s.deltaT).Value()

	for i := 0; i < solverIterations; i++ {
		residual := wrapResidual(s.calc.ApparentLongitude(jde) - target)
		if math.Abs(residual) < solverTolerance {
			break
		}
		jde -= residual / SunMeanRate
	}

	return timescale.MomentOfJulianDay(timescale.Ephemeris(jde), s.deltaT)
}

// wrapResidual maps a longitude difference into [-180, 180].
func wrapResidual(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	}
	if d < -180 {
		d += 360
	}
	return d
}
