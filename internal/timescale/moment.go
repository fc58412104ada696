package timescale

import (
	"fmt"
	"math"
	"time"
)

// Moment is an instant counted in whole seconds since the Unix epoch.
//
// It is scale-neutral wall time (UTC-equivalent). Conversion to TT applies
// ΔT; conversion to UT does not.
type Moment struct {
	epochSecond int64
}

// MomentOf returns the moment epochSecond seconds after the Unix epoch.
func MomentOf(epochSecond int64) Moment {
	return Moment{epochSecond: epochSecond}
}

// MomentOfTime truncates t to whole seconds.
func MomentOfTime(t time.Time) Moment {
	return Moment{epochSecond: t.Unix()}
}

// MomentOfJulianDay converts a Julian day to a moment. TT days are shifted
// by ΔT at the apparent year first. The result is floored to the second.
func MomentOfJulianDay(jd JulianDay, dt DeltaT) Moment {
	value := jd.Value()
	if jd.Scale() == TT {
		value -= dt.AtJulianDay(jd.Value()) / secondsPerDay
	}

	seconds := (value - Unix.Value()) * secondsPerDay
	return Moment{epochSecond: int64(math.Floor(seconds))}
}

// Unix returns the seconds since the Unix epoch.
func (m Moment) Unix() int64 { return m.epochSecond }

// Time returns m as a UTC time.Time.
func (m Moment) Time() time.Time {
	return time.Unix(m.epochSecond, 0).UTC()
}

// In returns m as a time.Time in loc.
func (m Moment) In(loc *time.Location) time.Time {
	return time.Unix(m.epochSecond, 0).In(loc)
}

// LocalDate returns the civil date of m in loc, at midnight UTC so that
// dates from different zones compare by calendar day alone.
func (m Moment) LocalDate(loc *time.Location) time.Time {
	y, mo, d := m.In(loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// PlusSeconds returns m shifted by s seconds.
func (m Moment) PlusSeconds(s int64) Moment { return Moment{epochSecond: m.epochSecond + s} }

// PlusDays returns m shifted by whole 86400-second days.
func (m Moment) PlusDays(days int64) Moment {
	return m.PlusSeconds(days * int64(secondsPerDay))
}

// MinusDays returns m shifted back by whole 86400-second days.
func (m Moment) MinusDays(days int64) Moment {
	return m.PlusSeconds(-days * int64(secondsPerDay))
}

// Compare returns -1, 0 or +1 ordering m against other.
func (m Moment) Compare(other Moment) int {
	switch {
	case m.epochSecond < other.epochSecond:
		return -1
	case m.epochSecond > other.epochSecond:
		return 1
	default:
		return 0
	}
}

// Before reports whether m is earlier than other.
func (m Moment) Before(other Moment) bool { return m.epochSecond < other.epochSecond }

// After reports whether m is later than other.
func (m Moment) After(other Moment) bool { return m.epochSecond > other.epochSecond }

// Equal reports whether both moments are the same second.
func (m Moment) Equal(other Moment) bool { return m.epochSecond == other.epochSecond }

// ToEphemeris returns the Julian Ephemeris Day (TT) of m.
func (m Moment) ToEphemeris(dt DeltaT) JulianDay {
	offset := dt.AtTime(m.Time())
	return Ephemeris(Unix.Value() + (float64(m.epochSecond)+offset)/secondsPerDay)
}

// ToUniversal returns the Julian day of m in UT.
func (m Moment) ToUniversal() JulianDay {
	return Universal(Unix.Value() + float64(m.epochSecond)/secondsPerDay)
}

func (m Moment) String() string {
	return fmt.Sprintf("Moment(%d)", m.epochSecond)
}

// MarshalText renders m as RFC 3339 UTC.
func (m Moment) MarshalText() ([]byte, error) {
	return []byte(m.Time().Format(time.RFC3339)), nil
}

// UnmarshalText parses an RFC 3339 timestamp.
func (m *Moment) UnmarshalText(b []byte) error {
	t, err := time.Parse(time.RFC3339, string(b))
	if err != nil {
		return fmt.Errorf("parse moment: %w", err)
	}
	*m = MomentOfTime(t)
	return nil
}
