package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Supported Gregorian years. Earlier dates predate calendar reforms the
// model does not represent.
const (
	MinYear = 1700
	MaxYear = 2200

	// MaxRangeDays bounds /lunar/range.
	MaxRangeDays = 90
)

// parseDate parses YYYY-MM-DD into midnight UTC of that civil date.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	if err := checkYear(d.Year()); err != nil {
		return time.Time{}, err
	}
	return d, nil
}

// parseYear parses a path year.
func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, checkYear(year)
}

func checkYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("year %d outside supported range %d-%d", year, MinYear, MaxYear)
	}
	return nil
}

// zoneParam returns the zone named by ?zone=, or def when absent.
func zoneParam(r *http.Request, def *time.Location) (*time.Location, error) {
	name := r.URL.Query().Get("zone")
	if name == "" {
		return def, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return loc, nil
}

// coordinates is an observer position for sunrise and sunset.
type coordinates struct {
	Latitude  float64
	Longitude float64
}

var errHalfCoordinates = errors.New("lat and lng must be given together")

// coordinatesParam reads ?lat=&lng=. It returns nil when both are absent.
func coordinatesParam(r *http.Request) (*coordinates, error) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errHalfCoordinates
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("invalid longitude %q", lngStr)
	}

	return &coordinates{Latitude: lat, Longitude: lng}, nil
}
