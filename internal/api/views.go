package api

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/sexagenary"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// DayResponse is the JSON view of one converted day.
type DayResponse struct {
	Date            string                  `json:"date"`
	Calendar        string                  `json:"calendar"`
	Zone            string                  `json:"zone"`
	LunarDate       calendar.LunarDate      `json:"lunar_date"`
	LunarText       string                  `json:"lunar_text"`
	SolarTerm       calendar.DailySolarTerm `json:"solar_term"`
	Sexagenary      sexagenary.DateTime     `json:"sexagenary"`
	AuspiciousHours []HourView              `json:"auspicious_hours"`
	HolidayIDs      []string                `json:"holiday_ids"`
	Sun             *SunView                `json:"sun,omitempty"`
}

// HourView is a double hour with its clock range.
type HourView struct {
	Branch sexagenary.EarthlyBranch `json:"branch"`
	Start  int                      `json:"start_hour"`
	End    int                      `json:"end_hour"`
}

// SunView holds local sunrise and sunset. Both are omitted during polar day
// or night.
type SunView struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Sunrise   *time.Time `json:"sunrise,omitempty"`
	Sunset    *time.Time `json:"sunset,omitempty"`
}

func newDayResponse(calendarID string, loc *time.Location, d calendar.LunisolarDate, at *coordinates) DayResponse {
	hours := make([]HourView, 0, len(d.AuspiciousHours))
	for _, h := range d.AuspiciousHours {
		hours = append(hours, HourView{Branch: h.Branch, Start: h.Start(), End: h.End()})
	}

	resp := DayResponse{
		Date:            d.SolarDate.Format(time.DateOnly),
		Calendar:        calendarID,
		Zone:            loc.String(),
		LunarDate:       d.LunarDate,
		LunarText:       d.LunarDate.String(),
		SolarTerm:       d.DailySolarTerm,
		Sexagenary:      d.Sexagenary,
		AuspiciousHours: hours,
		HolidayIDs:      d.HolidayIDs,
	}
	if at != nil {
		resp.Sun = sunView(d.SolarDate, loc, *at)
	}
	return resp
}

func sunView(date time.Time, loc *time.Location, at coordinates) *SunView {
	rise, set := sunrise.SunriseSunset(at.Latitude, at.Longitude, date.Year(), date.Month(), date.Day())

	view := &SunView{Latitude: at.Latitude, Longitude: at.Longitude}
	if !rise.IsZero() {
		local := rise.In(loc)
		view.Sunrise = &local
	}
	if !set.IsZero() {
		local := set.In(loc)
		view.Sunset = &local
	}
	return view
}

// TermView is a solar term transition in the requested zone.
type TermView struct {
	Term      calendar.SolarTerm `json:"term"`
	Longitude int                `json:"longitude"`
	Major     bool               `json:"major"`
	At        time.Time          `json:"at"`
	LocalDate string             `json:"local_date"`
}

func newTermViews(transitions []calendar.TermTransition, loc *time.Location) []TermView {
	views := make([]TermView, 0, len(transitions))
	for _, tr := range transitions {
		local := tr.At.In(loc)
		views = append(views, TermView{
			Term:      tr.Term,
			Longitude: tr.Term.Longitude(),
			Major:     tr.Term.IsMajor(),
			At:        local,
			LocalDate: local.Format(time.DateOnly),
		})
	}
	return views
}

// FrameView describes a year frame and the months it contains.
type FrameView struct {
	calendar.YearFrame
	Zone   string      `json:"zone"`
	Months []MonthView `json:"months"`
}

// MonthView is one lunar month of a frame.
type MonthView struct {
	Index     int                 `json:"index"`
	Month     calendar.LunarMonth `json:"month"`
	LunarYear int                 `json:"lunar_year"`
	Starts    string              `json:"starts"`
}

// newFrameView labels each lunation of frame. starts holds the new moon
// opening each month, in order.
func newFrameView(frame calendar.YearFrame, loc *time.Location, starts []timescale.Moment) FrameView {
	months := make([]MonthView, 0, len(starts))
	for i, start := range starts {
		month := frame.MonthOf(i)
		months = append(months, MonthView{
			Index:     i,
			Month:     month,
			LunarYear: frame.LunarYearOf(month),
			Starts:    start.In(loc).Format(time.DateOnly),
		})
	}
	return FrameView{YearFrame: frame, Zone: loc.String(), Months: months}
}
