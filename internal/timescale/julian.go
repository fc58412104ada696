package timescale

import "fmt"

// JulianDay is a continuous count of days since noon UT on January 1, 4713 BC,
// tagged with the time scale it is expressed in.
//
// The integer part counts whole days and the fraction is the time elapsed
// since the preceding noon. Values are immutable; arithmetic preserves scale.
type JulianDay struct {
	value float64
	scale Scale
}

// NewJulianDay returns a Julian day with the given value and scale.
func NewJulianDay(value float64, scale Scale) (JulianDay, error) {
	if !scale.IsValid() {
		return JulianDay{}, fmt.Errorf("julian day %f: %w", value, ErrInvalidScale)
	}
	return JulianDay{value: value, scale: scale}, nil
}

// Ephemeris returns a Julian day in Terrestrial Time.
func Ephemeris(value float64) JulianDay {
	return JulianDay{value: value, scale: TT}
}

// Universal returns a Julian day in Universal Time.
func Universal(value float64) JulianDay {
	return JulianDay{value: value, scale: UTC}
}

// Value returns the number of days since the Julian epoch.
func (jd JulianDay) Value() float64 { return jd.value }

// Scale returns the time scale of the day count.
func (jd JulianDay) Scale() Scale { return jd.scale }

// WithValue returns a Julian day with the same scale and a new value.
func (jd JulianDay) WithValue(value float64) JulianDay {
	return JulianDay{value: value, scale: jd.scale}
}

// WithScale returns a Julian day with the same value relabelled to scale.
// No conversion is applied.
func (jd JulianDay) WithScale(scale Scale) (JulianDay, error) {
	return NewJulianDay(jd.value, scale)
}

// PlusDays adds days, keeping the scale.
func (jd JulianDay) PlusDays(days float64) JulianDay {
	return JulianDay{value: jd.value + days, scale: jd.scale}
}

// MinusDays subtracts days, keeping the scale.
func (jd JulianDay) MinusDays(days float64) JulianDay {
	return JulianDay{value: jd.value - days, scale: jd.scale}
}

// Equal reports whether both value and scale are identical. Numerically
// equal days in different scales are distinct.
func (jd JulianDay) Equal(other JulianDay) bool {
	return jd.value == other.value && jd.scale == other.scale
}

func (jd JulianDay) String() string {
	return fmt.Sprintf("JulianDay(%f %s)", jd.value, jd.scale)
}

// Epoch is a reference Julian day.
type Epoch struct {
	JulianDay
}

// Reference epochs.
var (
	// J1900 is 1900-01-00 12:00 TT.
	J1900 = Epoch{Ephemeris(2415021.0)}
	// J2000 is 2000-01-01 12:00 TT.
	J2000 = Epoch{Ephemeris(2451545.0)}
	// Unix is 1970-01-01 00:00 UTC.
	Unix = Epoch{Universal(2440587.5)}
)
