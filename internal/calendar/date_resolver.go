package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/sexagenary"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// DefaultID identifies the built-in Vietnamese lunisolar calendar.
const DefaultID = "Default"

// ErrMissingZone is returned when a conversion is asked for without a zone.
var ErrMissingZone = errors.New("time zone required")

// Cache names reported to a Recorder.
const (
	NovemberNewMoonCache = "november_new_moon"
	YearFrameCache       = "year_frame"
)

type frameKey struct {
	anchorYear int
	zone       string
}

// Lunisolar converts Gregorian dates to the Vietnamese lunisolar calendar.
// It is safe for concurrent use.
type Lunisolar struct {
	solar    *astro.SolarTime
	lunar    *astro.LunarTime
	deltaT   timescale.DeltaT
	holidays HolidayMatcher
	logger   *slog.Logger

	novemberNewMoons *Memo[frameKey, timescale.Moment]
	frames           *Memo[frameKey, YearFrame]
}

// Option configures a Lunisolar.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	recorder Recorder
	holidays HolidayMatcher
}

// WithLogger sets the logger used for year-frame construction.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder reports cache hits and misses.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithHolidayMatcher sets the matcher used by GetDate.
func WithHolidayMatcher(m HolidayMatcher) Option {
	return func(o *options) { o.holidays = m }
}

// NewLunisolar creates a converter over the given solar and lunar services.
func NewLunisolar(solar *astro.SolarTime, lunar *astro.LunarTime, opts ...Option) *Lunisolar {
	o := options{logger: slog.Default(), holidays: NoHolidays{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &Lunisolar{
		solar:            solar,
		lunar:            lunar,
		deltaT:           solar.DeltaT(),
		holidays:         o.holidays,
		logger:           o.logger,
		novemberNewMoons: NewMemo[frameKey, timescale.Moment](NovemberNewMoonCache, o.recorder),
		frames:           NewMemo[frameKey, YearFrame](YearFrameCache, o.recorder),
	}
}

// ID implements Calendar.
func (c *Lunisolar) ID() string { return DefaultID }

// GetDate returns the full lunisolar description of a civil date. Only the
// year, month and day of date are used; loc gives the civil day.
func (c *Lunisolar) GetDate(date time.Time, loc *time.Location) (LunisolarDate, error) {
	if loc == nil {
		return LunisolarDate{}, ErrMissingZone
	}
	solarDate := civilDate(date)
	anchor := dayStart(date, loc)

	lunarDate, err := c.GetLunarDate(date, loc)
	if err != nil {
		return LunisolarDate{}, err
	}

	term := ResolveDailySolarTerm(c.solar, anchor)

	year := sexagenary.OfYear(lunarDate.Year)
	day := sexagenary.OfDay(anchor, loc)
	sexagenaryDate := sexagenary.DateTime{
		Date: sexagenary.Date{
			Year:  year,
			Month: sexagenary.OfMonth(year, lunarDate.Month.Value),
			Day:   day,
		},
		Hour: sexagenary.OfHour(day),
	}

	holidayIDs := c.holidays.Match(HolidayContext{
		SolarDate:      solarDate,
		LunarDate:      lunarDate,
		DailySolarTerm: term,
	})
	if holidayIDs == nil {
		holidayIDs = []string{}
	}

	return LunisolarDate{
		SolarDate:       solarDate,
		LunarDate:       lunarDate,
		DailySolarTerm:  term,
		Sexagenary:      sexagenaryDate,
		AuspiciousHours: sexagenaryDate.AuspiciousHours(),
		HolidayIDs:      holidayIDs,
	}, nil
}

// GetLunarDate converts a civil date in loc to a lunar date.
func (c *Lunisolar) GetLunarDate(date time.Time, loc *time.Location) (LunarDate, error) {
	if loc == nil {
		return LunarDate{}, ErrMissingZone
	}
	year := date.Year()
	anchor := dayStart(date, loc)

	currentNewMoon, err := startNewMoonOf(c.lunar, anchor)
	if err != nil {
		return LunarDate{}, fmt.Errorf("new moon before %s: %w", civilDate(date).Format(time.DateOnly), err)
	}

	novemberNewMoon, err := c.NovemberNewMoon(year, loc)
	if err != nil {
		return LunarDate{}, err
	}

	frame, err := c.Frame(AnchorYearOf(year, currentNewMoon, novemberNewMoon, loc), loc)
	if err != nil {
		return LunarDate{}, err
	}

	month := frame.MonthOf(lunationsBetween(frame.NovemberNewMoon, currentNewMoon, c.deltaT))
	day := daysBetween(currentNewMoon.LocalDate(loc), anchor.LocalDate(loc)) + 1

	return LunarDate{Year: frame.LunarYearOf(month), Month: month, Day: day}, nil
}

// NovemberNewMoon returns the new moon starting month 11 of a Gregorian
// year in loc: the last new moon before the end of the winter solstice's
// civil day. Month 11 always contains that day.
func (c *Lunisolar) NovemberNewMoon(year int, loc *time.Location) (timescale.Moment, error) {
	if loc == nil {
		return timescale.Moment{}, ErrMissingZone
	}
	return c.novemberNewMoons.GetOrCompute(frameKey{anchorYear: year, zone: loc.String()}, func(k frameKey) (timescale.Moment, error) {
		m, err := startNewMoonOf(c.lunar, startOfDay(winterSolstice(c.solar, k.anchorYear), loc))
		if err != nil {
			return timescale.Moment{}, fmt.Errorf("month 11 new moon of %d: %w", k.anchorYear, err)
		}
		return m, nil
	})
}

// Frame returns the year frame starting in anchorYear, as seen from loc.
// The leap month depends on civil days, so frames are cached per zone.
func (c *Lunisolar) Frame(anchorYear int, loc *time.Location) (YearFrame, error) {
	if loc == nil {
		return YearFrame{}, ErrMissingZone
	}
	return c.frames.GetOrCompute(frameKey{anchorYear: anchorYear, zone: loc.String()}, func(k frameKey) (YearFrame, error) {
		return c.buildFrame(k.anchorYear, loc)
	})
}

// CachedFrames returns the number of frames computed so far.
func (c *Lunisolar) CachedFrames() int { return c.frames.Len() }

func (c *Lunisolar) buildFrame(anchorYear int, loc *time.Location) (YearFrame, error) {
	start, err := c.NovemberNewMoon(anchorYear, loc)
	if err != nil {
		return YearFrame{}, err
	}
	end, err := c.NovemberNewMoon(anchorYear+1, loc)
	if err != nil {
		return YearFrame{}, err
	}

	frame := YearFrame{
		AnchorYear:      anchorYear,
		NovemberNewMoon: start,
		Lunations:       lunationsBetween(start, end, c.deltaT),
		LeapMonthIndex:  NoLeapMonth,
	}

	if frame.Lunations == maxLunationsPerFrame {
		index, err := c.leapMonthIndex(start, loc)
		if err != nil {
			return YearFrame{}, &InvariantError{AnchorYear: anchorYear, Err: err}
		}
		frame.HasLeapMonth = true
		frame.LeapMonthIndex = index
	}

	c.logger.Debug("year frame computed",
		"anchor_year", anchorYear,
		"zone", loc.String(),
		"lunations", frame.Lunations,
		"leap_month_index", frame.LeapMonthIndex,
	)

	return frame, nil
}

// leapMonthIndex finds the first month of the frame during which the Sun
// does not enter a new major term. Terms are compared at the start of the
// civil day of each new moon, so a term beginning on the day of a new moon
// counts toward the month that new moon opens.
func (c *Lunisolar) leapMonthIndex(start timescale.Moment, loc *time.Location) (int, error) {
	newMoon := start
	for i := 0; i < maxLunationsPerFrame; i++ {
		// Step a day past the new moon so the search cannot find it again.
		next, err := c.lunar.After(newMoon.PlusDays(1), astro.NewMoon)
		if err != nil {
			return 0, err
		}

		currentTerm := MajorSolarTermFrom(c.solar.ApparentLongitudeAt(startOfDay(newMoon, loc)))
		nextTerm := MajorSolarTermFrom(c.solar.ApparentLongitudeAt(startOfDay(next, loc)))
		if currentTerm == nextTerm {
			return i, nil
		}

		newMoon = next
	}
	return 0, ErrNoLeapMonth
}

// civilDate strips t to its year, month and day at midnight UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayStart returns the first moment of t's calendar day in loc.
func dayStart(t time.Time, loc *time.Location) timescale.Moment {
	y, m, d := t.Date()
	return timescale.MomentOfTime(time.Date(y, m, d, 0, 0, 0, 0, loc))
}

// daysBetween counts whole days between two midnight-UTC civil dates.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / 86400)
}
