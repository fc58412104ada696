package sexagenary

import (
	"fmt"
	"time"

	"github.com/zapponejosh/amlich-api/internal/timescale"
)

// Cycle is one stem-branch pair of the sexagenary cycle.
type Cycle struct {
	Stem   HeavenlyStem  `json:"stem"`
	Branch EarthlyBranch `json:"branch"`
}

// OfDay returns the day pillar for the civil date of m in loc.
func OfDay(m timescale.Moment, loc *time.Location) Cycle {
	// LocalDate is midnight UTC, so the division is exact.
	days := int(m.LocalDate(loc).Unix() / 86400)
	return Cycle{
		Stem:   HeavenlyStem(floorMod(days+YinMetal.Index(), stemCount)),
		Branch: EarthlyBranch(floorMod(days+Snake.Index(), branchCount)),
	}
}

// OfYear returns the year pillar of a lunar year.
func OfYear(year int) Cycle {
	years := year - 1970
	return Cycle{
		Stem:   HeavenlyStem(floorMod(years+YangMetal.Index(), stemCount)),
		Branch: EarthlyBranch(floorMod(years+Dog.Index(), branchCount)),
	}
}

// OfMonth returns the pillar of lunar month 1..12 in a year. The first month
// is always a TIGER month; its stem follows the "five tigers" rule.
func OfMonth(year Cycle, month int) Cycle {
	first := year.Stem.Index()*2 + YangFire.Index()
	offset := month - 1
	return Cycle{
		Stem:   HeavenlyStem(floorMod(first+offset, stemCount)),
		Branch: EarthlyBranch(floorMod(Tiger.Index()+offset, branchCount)),
	}
}

// OfHour returns the pillar of the RAT double hour that opens a day, by the
// "five rats" rule.
func OfHour(day Cycle) Cycle {
	return Cycle{
		Stem:   HeavenlyStem(floorMod(day.Stem.Index()*2+YangWood.Index(), stemCount)),
		Branch: Rat,
	}
}

// Index returns the position 0..59 of c in the sexagenary cycle, or -1 when
// the stem and branch parities differ and the pair never occurs.
func (c Cycle) Index() int {
	s, b := c.Stem.Index(), c.Branch.Index()
	if (s-b)%2 != 0 {
		return -1
	}
	for i := s; i < 60; i += stemCount {
		if i%branchCount == b {
			return i
		}
	}
	return -1
}

func (c Cycle) String() string {
	return fmt.Sprintf("%s %s", c.Stem, c.Branch)
}

func floorMod(x, n int) int {
	return ((x % n) + n) % n
}
