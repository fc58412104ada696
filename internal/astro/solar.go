package astro

import (
	"errors"
	"fmt"
	"math"

	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// ErrNoTerms is returned when a VSOP87 calculator is built from an empty or
// malformed coefficient table.
var ErrNoTerms = errors.New("no periodic terms")

const (
	daysPerJulianCentury    = 36525.0
	daysPerJulianMillennium = 365250.0
)

// SolarCalculator returns the Sun's apparent geocentric ecliptic longitude in
// degrees, in [0, 360), for a Julian Ephemeris Day.
type SolarCalculator interface {
	ApparentLongitude(jde float64) float64
}

// Meeus is the low-precision solar position algorithm from Astronomical
// Algorithms, ch. 25. Accurate to about 0.01 degree.
type Meeus struct{}

// ApparentLongitude implements SolarCalculator.
func (Meeus) ApparentLongitude(jde float64) float64 {
	t := (jde - timescale.J2000.Value()) / daysPerJulianCentury

	l0 := 280.46646 + 36000.76983*t + 0.0003032*t*t
	m := 357.52911 + 35999.05029*t - 0.0001537*t*t
	mRad := radians(NormalizeAngle(m))

	c := (1.914602-0.004817*t-0.000014*t*t)*math.Sin(mRad) +
		(0.019993-0.000101*t)*math.Sin(2*mRad) +
		0.000289*math.Sin(3*mRad)

	return NormalizeAngle(correctNutationAberration(l0+c, t))
}

// Term is one periodic term A*cos(B + C*t) of a VSOP87 series.
type Term struct {
	A, B, C float64
}

// PeriodicTerms holds the six Earth longitude series L0..L5. Series i is
// multiplied by t^i where t is in Julian millennia from J2000.
type PeriodicTerms [6][]Term

// Len returns the total number of terms across all series.
func (p *PeriodicTerms) Len() int {
	n := 0
	for _, s := range p {
		n += len(s)
	}
	return n
}

// VSOP87 evaluates the heliocentric VSOP87D Earth longitude and converts it
// to the apparent geocentric longitude of the Sun.
type VSOP87 struct {
	terms PeriodicTerms
}

// NewVSOP87 returns a calculator over terms. The table is copied so later
// changes by the caller are not observed.
func NewVSOP87(terms PeriodicTerms) (*VSOP87, error) {
	if len(terms[0]) == 0 {
		return nil, fmt.Errorf("vsop87: L0 series is empty: %w", ErrNoTerms)
	}

	var own PeriodicTerms
	for i, series := range terms {
		for j, term := range series {
			if math.IsNaN(term.A) || math.IsNaN(term.B) || math.IsNaN(term.C) {
				return nil, fmt.Errorf("vsop87: L%d term %d is not a number: %w", i, j, ErrNoTerms)
			}
		}
		own[i] = append([]Term(nil), series...)
	}
	return &VSOP87{terms: own}, nil
}

// ApparentLongitude implements SolarCalculator.
func (v *VSOP87) ApparentLongitude(jde float64) float64 {
	days := jde - timescale.J2000.Value()
	t := days / daysPerJulianMillennium

	var l float64
	power := 1.0
	for _, series := range v.terms {
		var sum float64
		for _, term := range series {
			sum += term.A * math.Cos(term.B+term.C*t)
		}
		l += sum * power
		power *= t
	}

	// heliocentric to geocentric
	l = degrees(l) + 180

	return NormalizeAngle(correctNutationAberration(l, days/daysPerJulianCentury))
}
