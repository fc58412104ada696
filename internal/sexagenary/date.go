package sexagenary

// Date holds the year, month and day pillars.
type Date struct {
	Year  Cycle `json:"year"`
	Month Cycle `json:"month"`
	Day   Cycle `json:"day"`
}

// AuspiciousHours returns the auspicious double hours of the day pillar.
func (d Date) AuspiciousHours() []DoubleHour {
	return AuspiciousHours(d.Day.Branch)
}

// DateTime adds the hour pillar to a Date.
type DateTime struct {
	Date
	Hour Cycle `json:"hour"`
}
