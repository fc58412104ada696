package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// Year frame constants
const (
	// WinterSolsticeLongitude is the solar longitude that fixes month 11.
	WinterSolsticeLongitude = 270

	// NoLeapMonth is the LeapMonthIndex of a 12-lunation frame.
	NoLeapMonth = -1

	// maxLunationsPerFrame bounds the leap-month walk.
	maxLunationsPerFrame = 13
)

// ErrNoLeapMonth means a 13-lunation frame had no month without a major
// solar term. The astronomical model is inconsistent for that year.
var ErrNoLeapMonth = errors.New("no leap month in 13-lunation year")

// InvariantError reports a model inconsistency that aborts the computation
// for one anchor year. It is never cached.
type InvariantError struct {
	AnchorYear int
	Err        error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("year frame %d: %v", e.AnchorYear, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// YearFrame is the astronomical year from the new moon starting month 11 of
// AnchorYear to the one starting month 11 of the following year.
type YearFrame struct {
	AnchorYear      int              `json:"anchor_year"`
	NovemberNewMoon timescale.Moment `json:"november_new_moon"`
	Lunations       int              `json:"lunations"`
	HasLeapMonth    bool             `json:"has_leap_month"`
	LeapMonthIndex  int              `json:"leap_month_index"`
}

// MonthOf maps a month index within the frame to a lunar month.
//
// Index 0 is month 11. Before the leap index the months count up normally;
// the leap index repeats the previous month number with Leap set, and every
// later index is shifted back by one.
//
// Examples (frame 2024, leap index 8):
//   - index 0: month 11
//   - index 2: month 1
//   - index 7: month 6
//   - index 8: month 6, leap
//   - index 9: month 7
func (f YearFrame) MonthOf(index int) LunarMonth {
	if !f.HasLeapMonth || index < f.LeapMonthIndex {
		return LunarMonth{Value: (index+10)%12 + 1}
	}
	return LunarMonth{Value: (index+9)%12 + 1, Leap: index == f.LeapMonthIndex}
}

// LunarYearOf returns the lunar year of a month in this frame. Months 11
// and 12 belong to the anchor year; months 1 through 10 to the next.
func (f YearFrame) LunarYearOf(month LunarMonth) int {
	if month.Value < 11 {
		return f.AnchorYear + 1
	}
	return f.AnchorYear
}

// AnchorYearOf determines which frame a new moon belongs to.
//
// A lunar month belongs to the frame that started at the most recent month
// 11 new moon. Given the month 11 new moon of Gregorian year y, a new moon
// whose civil date falls before it belongs to frame y-1.
//
// Examples (Asia/Ho_Chi_Minh):
//   - new moon 2026-04-17, month 11 new moon of 2026 on 2026-12-09: frame 2025
//   - new moon 2024-12-01, month 11 new moon of 2024 on 2024-12-01: frame 2024
//   - new moon 2025-12-20, month 11 new moon of 2025 on 2025-12-20: frame 2025
func AnchorYearOf(year int, newMoon, novemberNewMoon timescale.Moment, loc *time.Location) int {
	if newMoon.LocalDate(loc).Before(novemberNewMoon.LocalDate(loc)) {
		return year - 1
	}
	return year
}

// winterSolstice searches from December 14 for the Sun reaching 270 degrees.
func winterSolstice(st *astro.SolarTime, year int) timescale.Moment {
	anchor := timescale.MomentOfTime(time.Date(year, time.December, 14, 0, 0, 0, 0, time.UTC))
	return st.AtLongitude(WinterSolsticeLongitude, anchor)
}

// startNewMoonOf returns the new moon that starts the lunar month containing
// anchor's day.
func startNewMoonOf(lt *astro.LunarTime, anchor timescale.Moment) (timescale.Moment, error) {
	return lt.Before(anchor.PlusDays(1), astro.NewMoon)
}

// lunationsBetween counts mean synodic months from start to end, rounded.
func lunationsBetween(start, end timescale.Moment, dt timescale.DeltaT) int {
	days := end.ToEphemeris(dt).Value() - start.ToEphemeris(dt).Value()
	return int(math.Round(days / astro.MeanSynodicMonth))
}

// startOfDay returns the first second of m's civil day in loc.
func startOfDay(m timescale.Moment, loc *time.Location) timescale.Moment {
	y, mo, d := m.In(loc).Date()
	return timescale.MomentOfTime(time.Date(y, mo, d, 0, 0, 0, 0, loc))
}
