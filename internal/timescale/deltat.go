package timescale

import (
	"math"
	"time"
)

const (
	secondsPerDay    = 86400.0
	daysInJulianYear = 365.25
)

// Estimator estimates TT - UT in seconds for a decimal year.
type Estimator interface {
	Estimate(year float64) float64
}

// EstimatorFunc adapts a plain function to an Estimator.
type EstimatorFunc func(year float64) float64

// Estimate calls f(year).
func (f EstimatorFunc) Estimate(year float64) float64 { return f(year) }

// DeltaT converts between the decimal-year forms callers hold and the
// estimator's input.
type DeltaT struct {
	estimator Estimator
}

// NewDeltaT returns a DeltaT backed by estimator. A nil estimator falls back
// to EspenakMeeus.
func NewDeltaT(estimator Estimator) DeltaT {
	if estimator == nil {
		estimator = EspenakMeeus{}
	}
	return DeltaT{estimator: estimator}
}

// DefaultDeltaT is the Espenak-Meeus polynomial set.
func DefaultDeltaT() DeltaT {
	return NewDeltaT(EspenakMeeus{})
}

func (d DeltaT) est() Estimator {
	if d.estimator == nil {
		return EspenakMeeus{}
	}
	return d.estimator
}

// AtYear returns ΔT in seconds at a decimal year.
func (d DeltaT) AtYear(year float64) float64 {
	return d.est().Estimate(year)
}

// AtJulianDay returns ΔT at a Julian day number, using Julian years from J2000.
func (d DeltaT) AtJulianDay(value float64) float64 {
	year := 2000.0 + (value-J2000.Value())/daysInJulianYear
	return d.est().Estimate(year)
}

// AtTime returns ΔT at t. The fractional year is measured in nanoseconds
// from the start of t's calendar year so leap years stay exact.
func (d DeltaT) AtTime(t time.Time) float64 {
	return d.est().Estimate(FractionalYear(t))
}

// FractionalYear returns year + elapsed/length for t's calendar year.
func FractionalYear(t time.Time) float64 {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(1, 0, 0)

	elapsed := t.Sub(start).Nanoseconds()
	length := next.Sub(start).Nanoseconds()

	return float64(t.Year()) + float64(elapsed)/float64(length)
}

// NoOp estimates ΔT as zero, so TT and UT coincide.
type NoOp struct{}

// Estimate always returns 0.
func (NoOp) Estimate(float64) float64 { return 0 }

// EspenakMeeus implements the polynomial expressions from the Five Millennium
// Canon of Solar Eclipses (Espenak and Meeus).
//
// https://eclipse.gsfc.nasa.gov/SEcat5/deltatpoly.html
type EspenakMeeus struct{}

// Estimate returns ΔT in seconds.
func (EspenakMeeus) Estimate(y float64) float64 {
	switch {
	case y < -500:
		u := (y - 1820) / 100
		return -20 + 32*u*u

	case y < 500:
		u := y / 100
		return poly(u, 10583.6, -1014.41, 33.78311, -5.952053, -0.1798452, 0.022174192, 0.0090316521)

	case y < 1600:
		u := (y - 1000) / 100
		return poly(u, 1574.2, -556.01, 71.23472, 0.319781, -0.8503463, -0.005050998, 0.0083572073)

	case y < 1700:
		t := y - 1600
		return 120 - 0.9808*t - 0.01532*t*t + math.Pow(t, 3)/7129

	case y < 1800:
		t := y - 1700
		return 8.83 + 0.1603*t - 0.0059285*t*t + 0.00013336*math.Pow(t, 3) - math.Pow(t, 4)/1174000

	case y < 1860:
		t := y - 1800
		return poly(t, 13.72, -0.332447, 0.0068612, 0.0041116, -0.00037436, 0.0000121272, -0.0000001699, 0.000000000875)

	case y < 1900:
		t := y - 1860
		return 7.62 + 0.5737*t - 0.251754*t*t + 0.01680668*math.Pow(t, 3) -
			0.0004473624*math.Pow(t, 4) + math.Pow(t, 5)/233174

	case y < 1920:
		t := y - 1900
		return poly(t, -2.79, 1.494119, -0.0598939, 0.0061966, -0.000197)

	case y < 1941:
		t := y - 1920
		return poly(t, 21.20, 0.84493, -0.076100, 0.0020936)

	case y < 1961:
		t := y - 1950
		return 29.07 + 0.407*t - t*t/233 + math.Pow(t, 3)/2547

	case y < 1986:
		t := y - 1975
		return 45.45 + 1.067*t - t*t/260 - math.Pow(t, 3)/718

	case y < 2005:
		t := y - 2000
		return poly(t, 63.86, 0.3345, -0.060374, 0.0017275, 0.000651814, 0.00002373599)

	case y < 2050:
		t := y - 2000
		return poly(t, 62.92, 0.32217, 0.005589)

	case y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)

	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// poly evaluates c[0] + c[1]*x + c[2]*x^2 + ... with Horner's rule.
func poly(x float64, c ...float64) float64 {
	var sum float64
	for i := len(c) - 1; i >= 0; i-- {
		sum = sum*x + c[i]
	}
	return sum
}
