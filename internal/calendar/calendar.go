// Package calendar converts Gregorian dates to the Vietnamese lunisolar
// calendar: lunar year, month and day with leap months, the solar term of
// the day, and the sexagenary pillars.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zapponejosh/amlich-api/internal/sexagenary"
)

// Calendar errors.
var (
	ErrUnknownCalendar   = errors.New("unknown calendar")
	ErrDuplicateCalendar = errors.New("duplicate calendar id")
)

// Calendar is a lunisolar calendar implementation.
type Calendar interface {
	ID() string
	GetDate(date time.Time, loc *time.Location) (LunisolarDate, error)
	GetLunarDate(date time.Time, loc *time.Location) (LunarDate, error)
}

// LunisolarDate is everything known about one civil day.
type LunisolarDate struct {
	SolarDate       time.Time               `json:"solar_date"`
	LunarDate       LunarDate               `json:"lunar_date"`
	DailySolarTerm  DailySolarTerm          `json:"solar_term"`
	Sexagenary      sexagenary.DateTime     `json:"sexagenary"`
	AuspiciousHours []sexagenary.DoubleHour `json:"auspicious_hours"`
	HolidayIDs      []string                `json:"holiday_ids"`
}

// Registry maps calendar ids to implementations.
type Registry struct {
	mu        sync.RWMutex
	calendars map[string]Calendar
}

// NewRegistry returns a registry holding cals. Duplicate ids are an error.
func NewRegistry(cals ...Calendar) (*Registry, error) {
	r := &Registry{calendars: make(map[string]Calendar, len(cals))}
	for _, c := range cals {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c under its id.
func (r *Registry) Register(c Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calendars[c.ID()]; exists {
		return fmt.Errorf("%q: %w", c.ID(), ErrDuplicateCalendar)
	}
	r.calendars[c.ID()] = c
	return nil
}

// Get returns the calendar registered under id.
func (r *Registry) Get(id string) (Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.calendars[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownCalendar)
	}
	return c, nil
}

// Default returns the calendar registered under DefaultID.
func (r *Registry) Default() (Calendar, error) {
	return r.Get(DefaultID)
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.calendars))
	for id := range r.calendars {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
