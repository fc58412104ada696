package astro

import (
	"fmt"
	"math"
)

// MeanSynodicMonth is the mean interval between new moons in days.
const MeanSynodicMonth = 29.530588853

// Phase is a principal phase of the Moon.
type Phase int

// Principal phases, in order through a lunation.
const (
	NewMoon Phase = iota
	FirstQuarter
	FullMoon
	LastQuarter
)

var phaseNames = [...]string{"NEW_MOON", "FIRST_QUARTER", "FULL_MOON", "LAST_QUARTER"}

// Phases lists every phase in lunation order.
func Phases() []Phase {
	return []Phase{NewMoon, FirstQuarter, FullMoon, LastQuarter}
}

// ParsePhase looks a phase up by name.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown lunar phase %q", name)
}

// IsValid reports whether p is one of the four principal phases.
func (p Phase) IsValid() bool { return p >= NewMoon && p <= LastQuarter }

func (p Phase) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// AngleFraction is the phase's position through a lunation: 0, 0.25, 0.5
// or 0.75.
func (p Phase) AngleFraction() float64 { return float64(p) / 4 }

// AtLunation returns the Julian Ephemeris Day of the phase in lunation n,
// where lunation 0 is the new moon of 2000-01-06 (Meeus, ch. 49).
func (p Phase) AtLunation(n int64) float64 {
	k := float64(n) + p.AngleFraction()
	t := k / (daysPerJulianCentury / MeanSynodicMonth)
	t2, t3, t4 := t*t, t*t*t, t*t*t*t

	mean := 2451550.09766 + MeanSynodicMonth*k +
		0.0001337*t2 - 0.000000150*t3 + 0.00000000073*t4

	m := radians(2.5534 + 29.10535669*k - 0.0000218*t2 - 0.00000011*t3)
	m1 := radians(201.5643 + 385.81693528*k + 0.0107438*t2 + 0.00001239*t3 - 0.000000058*t4)
	f := radians(160.7108 + 390.67050274*k - 0.0016341*t2 - 0.00000227*t3 + 0.000000011*t4)
	omega := radians(124.7746 - 1.56375588*k + 0.0020672*t2 + 0.00000215*t3)

	return mean + p.periodicCorrection(m, m1, f, omega) + planetaryCorrection(k, t)
}

// periodicCorrection returns the phase-specific correction in days. Angles
// are in radians. The eccentricity factor E is taken as 1.
func (p Phase) periodicCorrection(m, m1, f, omega float64) float64 {
	switch p {
	case NewMoon:
		return -0.40720*math.Sin(m1) + 0.17241*math.Sin(m) + 0.01608*math.Sin(2*m1) +
			0.01039*math.Sin(2*f) + 0.00739*math.Sin(m1-m) -
			0.00514*math.Sin(m1+m) + 0.00208*math.Sin(2*m) -
			0.00111*math.Sin(m1-2*f) - 0.00057*math.Sin(m1+2*f) +
			0.00056*math.Sin(2*m1+m) - 0.00042*math.Sin(3*m1) +
			0.00042*math.Sin(m+2*f) + 0.00038*math.Sin(m-2*f) -
			0.00024*math.Sin(2*m1-m) - 0.00017*math.Sin(omega) -
			0.00007*math.Sin(m1+2*m) + 0.00004*math.Sin(2*m1-2*f) +
			0.00004*math.Sin(3*m) + 0.00003*math.Sin(m1+m-2*f) +
			0.00003*math.Sin(2*m1+2*f) - 0.00003*math.Sin(m1+m+2*f) +
			0.00003*math.Sin(m1-m+2*f) - 0.00002*math.Sin(m1-m-2*f) -
			0.00002*math.Sin(3*m1+m) + 0.00002*math.Sin(4*m1)

	case FullMoon:
		return -0.40614*math.Sin(m1) + 0.17302*math.Sin(m) + 0.01614*math.Sin(2*m1) +
			0.01043*math.Sin(2*f) + 0.00734*math.Sin(m1-m) -
			0.00515*math.Sin(m1+m) + 0.00209*math.Sin(2*m) -
			0.00111*math.Sin(m1-2*f) - 0.00057*math.Sin(m1+2*f) +
			0.00056*math.Sin(2*m1+m) - 0.00042*math.Sin(3*m1) +
			0.00042*math.Sin(m+2*f) + 0.00038*math.Sin(m-2*f) -
			0.00024*math.Sin(2*m1-m) - 0.00017*math.Sin(omega) -
			0.00007*math.Sin(m1+2*m) + 0.00004*math.Sin(2*m1-2*f) +
			0.00004*math.Sin(3*m) + 0.00003*math.Sin(m1+m-2*f) +
			0.00003*math.Sin(2*m1+2*f) - 0.00003*math.Sin(m1+m+2*f) +
			0.00003*math.Sin(m1-m+2*f) - 0.00002*math.Sin(m1-m-2*f) -
			0.00002*math.Sin(3*m1+m) + 0.00002*math.Sin(4*m1)

	case FirstQuarter, LastQuarter:
		c := -0.62801*math.Sin(m1) + 0.17172*math.Sin(m) - 0.01183*math.Sin(m1+m) +
			0.00862*math.Sin(2*m1) + 0.00804*math.Sin(2*f) +
			0.00454*math.Sin(m1-m) + 0.00204*math.Sin(2*m) -
			0.00180*math.Sin(m1-2*f) - 0.00070*math.Sin(m1+2*f) -
			0.00040*math.Sin(3*m1) - 0.00034*math.Sin(2*m1-m) +
			0.00032*math.Sin(m+2*f) + 0.00032*math.Sin(m-2*f) -
			0.00028*math.Sin(m1+2*m) + 0.00027*math.Sin(2*m1+m) -
			0.00017*math.Sin(omega) - 0.00005*math.Sin(m1-m-2*f) +
			0.00004*math.Sin(2*m1+2*f) - 0.00004*math.Sin(m1+m+2*f) +
			0.00004*math.Sin(m1-2*m) + 0.00003*math.Sin(m1+m-2*f) +
			0.00003*math.Sin(3*m) + 0.00002*math.Sin(2*m1-2*f) +
			0.00002*math.Sin(m1-m+2*f) - 0.00002*math.Sin(3*m1+m)

		w := 0.00306 - 0.00038*math.Cos(m) + 0.00026*math.Cos(m1) -
			0.00002*math.Cos(m1-m) + 0.00002*math.Cos(m1+m) + 0.00002*math.Cos(2*f)
		if p == LastQuarter {
			w = -w
		}
		return c + w
	}
	return 0
}

// planetaryCorrection sums the 14 additional corrections shared by all phases.
func planetaryCorrection(k, t float64) float64 {
	return 0.000325*math.Sin(radians(299.77+0.107408*k-0.009173*t*t)) +
		0.000165*math.Sin(radians(251.88+0.016321*k)) +
		0.000164*math.Sin(radians(251.83+0.016322*k)) +
		0.000126*math.Sin(radians(349.42+0.009173*k)) +
		0.000110*math.Sin(radians(84.66+0.019302*k)) +
		0.000062*math.Sin(radians(141.74+0.005614*k)) +
		0.000060*math.Sin(radians(207.14+0.017201*k)) +
		0.000056*math.Sin(radians(154.84+0.002783*k)) +
		0.000047*math.Sin(radians(34.52+0.002429*k)) +
		0.000042*math.Sin(radians(207.19+0.017203*k)) +
		0.000040*math.Sin(radians(291.34+0.016400*k)) +
		0.000037*math.Sin(radians(161.72+0.001666*k)) +
		0.000035*math.Sin(radians(239.56+0.001439*k)) +
		0.000023*math.Sin(radians(331.55+0.000400*k))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid lunar phase %d", int(p))
	}
	return []byte(p.String()), nil
}
