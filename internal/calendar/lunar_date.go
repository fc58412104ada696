package calendar

import (
	"cmp"
	"errors"
	"fmt"
)

// ErrInvalidLunarDate is returned when a lunar month or day is out of range.
var ErrInvalidLunarDate = errors.New("invalid lunar date")

// LunarMonth is a month number 1..12 and whether it is the leap repeat of
// that number.
type LunarMonth struct {
	Value int  `json:"value"`
	Leap  bool `json:"leap"`
}

// NewLunarMonth validates value and returns the month.
func NewLunarMonth(value int, leap bool) (LunarMonth, error) {
	if value < 1 || value > 12 {
		return LunarMonth{}, fmt.Errorf("month %d: %w", value, ErrInvalidLunarDate)
	}
	return LunarMonth{Value: value, Leap: leap}, nil
}

// Compare orders by month number, then the regular month before its leap
// repeat.
func (m LunarMonth) Compare(other LunarMonth) int {
	if c := cmp.Compare(m.Value, other.Value); c != 0 {
		return c
	}
	switch {
	case m.Leap == other.Leap:
		return 0
	case other.Leap:
		return -1
	default:
		return 1
	}
}

func (m LunarMonth) String() string {
	if m.Leap {
		return fmt.Sprintf("%d (leap)", m.Value)
	}
	return fmt.Sprintf("%d", m.Value)
}

// LunarDate is a day in the lunisolar calendar. Year is the lunar year the
// month belongs to, which differs from the Gregorian year around Tết.
type LunarDate struct {
	Year  int        `json:"year"`
	Month LunarMonth `json:"month"`
	Day   int        `json:"day"`
}

// NewLunarDate validates month and day and returns the date. The day is
// checked against 1..30 only; the true month length is known to the
// converter, not here.
func NewLunarDate(year int, month LunarMonth, day int) (LunarDate, error) {
	if _, err := NewLunarMonth(month.Value, month.Leap); err != nil {
		return LunarDate{}, err
	}
	if day < 1 || day > 30 {
		return LunarDate{}, fmt.Errorf("day %d: %w", day, ErrInvalidLunarDate)
	}
	return LunarDate{Year: year, Month: month, Day: day}, nil
}

// Compare orders by year, month, then day.
func (d LunarDate) Compare(other LunarDate) int {
	if c := cmp.Compare(d.Year, other.Year); c != 0 {
		return c
	}
	if c := d.Month.Compare(other.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, other.Day)
}

func (d LunarDate) String() string {
	leap := ""
	if d.Month.Leap {
		leap = "L"
	}
	return fmt.Sprintf("%04d-%02d%s-%02d", d.Year, d.Month.Value, leap, d.Day)
}
