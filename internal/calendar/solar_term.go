package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// ErrUnknownLongitude is returned when no solar term starts at a longitude.
var ErrUnknownLongitude = errors.New("no solar term at longitude")

// SolarTerm is one of the 24 fixed 15-degree segments of the Sun's apparent
// ecliptic longitude. Terms are indexed from START_OF_SPRING (315 degrees).
type SolarTerm int

const (
	StartOfSpring SolarTerm = iota
	RainWater
	AwakeningOfInsects
	VernalEquinox
	PureBrightness
	GrainRain
	StartOfSummer
	GrainBuds
	GrainInEar
	SummerSolstice
	MinorHeat
	MajorHeat
	StartOfAutumn
	LimitOfHeat
	WhiteDew
	AutumnalEquinox
	ColdDew
	FrostDescent
	StartOfWinter
	MinorSnow
	MajorSnow
	WinterSolstice
	MinorCold
	MajorCold
)

const (
	termCount       = 24
	termWidth       = 15
	firstTermDegree = 315
)

var termNames = [termCount]string{
	"START_OF_SPRING", "RAIN_WATER", "AWAKENING_OF_INSECTS", "VERNAL_EQUINOX",
	"PURE_BRIGHTNESS", "GRAIN_RAIN", "START_OF_SUMMER", "GRAIN_BUDS",
	"GRAIN_IN_EAR", "SUMMER_SOLSTICE", "MINOR_HEAT", "MAJOR_HEAT",
	"START_OF_AUTUMN", "LIMIT_OF_HEAT", "WHITE_DEW", "AUTUMNAL_EQUINOX",
	"COLD_DEW", "FROST_DESCENT", "START_OF_WINTER", "MINOR_SNOW",
	"MAJOR_SNOW", "WINTER_SOLSTICE", "MINOR_COLD", "MAJOR_COLD",
}

// SolarTerms returns all terms in index order.
func SolarTerms() []SolarTerm {
	terms := make([]SolarTerm, termCount)
	for i := range terms {
		terms[i] = SolarTerm(i)
	}
	return terms
}

// SolarTermOfLongitude returns the term starting at exactly longitude
// degrees. Only multiples of 15 in [0, 360) are accepted.
func SolarTermOfLongitude(longitude int) (SolarTerm, error) {
	if longitude < 0 || longitude >= 360 || longitude%termWidth != 0 {
		return 0, fmt.Errorf("%d: %w", longitude, ErrUnknownLongitude)
	}
	return termAt(longitude), nil
}

// SolarTermFrom returns the term whose 15-degree segment contains longitude.
// Out-of-range input is normalized first.
func SolarTermFrom(longitude float64) SolarTerm {
	lon := int(astro.NormalizeAngle(longitude)) / termWidth * termWidth
	return termAt(lon)
}

// MajorSolarTermFrom returns the major term whose 30-degree segment contains
// longitude. Major terms are the ones starting on a multiple of 30.
func MajorSolarTermFrom(longitude float64) SolarTerm {
	lon := int(astro.NormalizeAngle(longitude)) / (2 * termWidth) * (2 * termWidth)
	return termAt(lon)
}

func termAt(longitude int) SolarTerm {
	return SolarTerm(floorMod((longitude-firstTermDegree)/termWidth, termCount))
}

// ParseSolarTerm looks a term up by its name, e.g. "WINTER_SOLSTICE".
func ParseSolarTerm(name string) (SolarTerm, error) {
	for i, n := range termNames {
		if n == name {
			return SolarTerm(i), nil
		}
	}
	return 0, fmt.Errorf("unknown solar term %q", name)
}

// Index returns the term's position, 0..23.
func (s SolarTerm) Index() int { return int(s) }

// Longitude returns the starting longitude of the term in degrees.
func (s SolarTerm) Longitude() int {
	return floorMod(firstTermDegree+int(s)*termWidth, 360)
}

// IsMajor reports whether the term starts on a multiple of 30 degrees.
func (s SolarTerm) IsMajor() bool { return s.Longitude()%(2*termWidth) == 0 }

// Roll steps amount terms forward (negative steps backward), wrapping.
func (s SolarTerm) Roll(amount int) SolarTerm {
	return SolarTerm(floorMod(int(s)+amount, termCount))
}

// Next returns the following term.
func (s SolarTerm) Next() SolarTerm { return s.Roll(1) }

// Previous returns the preceding term.
func (s SolarTerm) Previous() SolarTerm { return s.Roll(-1) }

func (s SolarTerm) String() string {
	if s < 0 || s >= termCount {
		return fmt.Sprintf("SolarTerm(%d)", int(s))
	}
	return termNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s SolarTerm) MarshalText() ([]byte, error) {
	if s < 0 || s >= termCount {
		return nil, fmt.Errorf("invalid solar term %d", int(s))
	}
	return []byte(termNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SolarTerm) UnmarshalText(b []byte) error {
	term, err := ParseSolarTerm(string(b))
	if err != nil {
		return err
	}
	*s = term
	return nil
}

// DailySolarTerm is the solar term governing a civil day. Transition is set
// when the term begins during that day.
type DailySolarTerm struct {
	Term       SolarTerm         `json:"term"`
	Transition *timescale.Moment `json:"transition,omitempty"`
}

// ResolveDailySolarTerm returns the term of the civil day starting at anchor.
// If the next term begins before the day ends, the day belongs to the next
// term and the transition is recorded.
func ResolveDailySolarTerm(st *astro.SolarTime, anchor timescale.Moment) DailySolarTerm {
	current := SolarTermFrom(st.ApparentLongitudeAt(anchor))
	next := current.Next()

	transition := st.AtLongitude(float64(next.Longitude()), anchor)
	if transition.Compare(anchor.PlusDays(1)) >= 0 {
		return DailySolarTerm{Term: current}
	}
	return DailySolarTerm{Term: next, Transition: &transition}
}

// TermTransition is the moment a solar term begins.
type TermTransition struct {
	Term SolarTerm        `json:"term"`
	At   timescale.Moment `json:"at"`
}

// YearSolarTerms returns the 24 term transitions falling in Gregorian year,
// in chronological order (MINOR_COLD in early January first).
func YearSolarTerms(st *astro.SolarTime, year int) []TermTransition {
	start := timescale.MomentOfTime(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	startLon := st.ApparentLongitudeAt(start)

	out := make([]TermTransition, 0, termCount)
	for i := 1; i <= termCount; i++ {
		term := SolarTermFrom(startLon).Roll(i)
		ahead := astro.NormalizeAngle(float64(term.Longitude()) - startLon)
		guess := start.PlusSeconds(int64(math.Round(ahead / astro.SunMeanRate * 86400)))

		out = append(out, TermTransition{
			Term: term,
			At:   st.AtLongitude(float64(term.Longitude()), guess),
		})
	}
	return out
}

func floorMod(x, n int) int {
	return ((x % n) + n) % n
}
