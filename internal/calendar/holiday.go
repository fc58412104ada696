package calendar

import "time"

// HolidayContext is the read-only view of a day handed to holiday rules.
type HolidayContext struct {
	SolarDate      time.Time
	LunarDate      LunarDate
	DailySolarTerm DailySolarTerm
}

// HolidayMatcher returns the identifiers of holidays falling on a day.
// Rule evaluation lives outside this package.
type HolidayMatcher interface {
	Match(ctx HolidayContext) []string
}

// HolidayMatcherFunc adapts a function to a HolidayMatcher.
type HolidayMatcherFunc func(HolidayContext) []string

// Match calls f(ctx).
func (f HolidayMatcherFunc) Match(ctx HolidayContext) []string { return f(ctx) }

// NoHolidays matches nothing.
type NoHolidays struct{}

// Match returns an empty list.
func (NoHolidays) Match(HolidayContext) []string { return []string{} }
