package sexagenary

import "fmt"

// DoubleHour is a two-hour window of the day named by a branch. RAT spans
// 23:00 to 01:00.
type DoubleHour struct {
	Branch EarthlyBranch `json:"branch"`
}

// Start returns the starting hour of day, 0..23.
func (h DoubleHour) Start() int { return floorMod(h.Branch.Index()*2-1, 24) }

// End returns the ending hour of day, 0..23.
func (h DoubleHour) End() int { return floorMod(h.Branch.Index()*2+1, 24) }

func (h DoubleHour) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", h.Start(), h.End())
}

// auspiciousGroups is indexed by day branch mod 6. Each row is sorted by
// branch index.
var auspiciousGroups = [6][6]EarthlyBranch{
	{Rat, WaterBuffalo, Cat, Horse, Monkey, Rooster},
	{Tiger, Cat, Snake, Monkey, Dog, Pig},
	{Rat, WaterBuffalo, Dragon, Snake, Goat, Dog},
	{Rat, Tiger, Cat, Horse, Goat, Rooster},
	{Tiger, Dragon, Snake, Monkey, Rooster, Pig},
	{WaterBuffalo, Dragon, Horse, Goat, Dog, Pig},
}

// AuspiciousHours returns the six auspicious double hours of a day whose
// pillar branch is day, in branch order.
func AuspiciousHours(day EarthlyBranch) []DoubleHour {
	group := auspiciousGroups[floorMod(day.Index(), 6)]

	hours := make([]DoubleHour, 0, len(group))
	for _, b := range group {
		hours = append(hours, DoubleHour{Branch: b})
	}
	return hours
}
