package main

import (
	"testing"

	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/timescale"
)

func day(year, month int, leap bool, d int, term calendar.SolarTerm, transition bool) calendar.LunisolarDate {
	out := calendar.LunisolarDate{
		LunarDate: calendar.LunarDate{
			Year:  year,
			Month: calendar.LunarMonth{Value: month, Leap: leap},
			Day:   d,
		},
		DailySolarTerm: calendar.DailySolarTerm{Term: term},
	}
	if transition {
		m := timescale.Moment{}
		out.DailySolarTerm.Transition = &m
	}
	return out
}

func TestCheckSuccessor(t *testing.T) {
	const gr, sos = calendar.GrainRain, calendar.StartOfSummer

	tests := []struct {
		name string
		prev calendar.LunisolarDate
		cur  calendar.LunisolarDate
		ok   bool
	}{
		{"next day", day(2026, 3, false, 18, gr, false), day(2026, 3, false, 19, sos, true), true},
		{"skipped day", day(2026, 3, false, 18, gr, false), day(2026, 3, false, 20, gr, false), false},
		{"into leap month", day(2025, 6, false, 30, gr, false), day(2025, 6, true, 1, gr, false), true},
		{"out of leap month", day(2025, 6, true, 29, gr, false), day(2025, 7, false, 1, gr, false), true},
		{"leap month of wrong number", day(2025, 6, false, 30, gr, false), day(2025, 7, true, 1, gr, false), false},
		{"short month", day(2025, 6, false, 28, gr, false), day(2025, 7, false, 1, gr, false), false},
		{"new year", day(2025, 12, false, 29, gr, false), day(2026, 1, false, 1, gr, false), true},
		{"new year from month 11", day(2025, 11, false, 30, gr, false), day(2026, 1, false, 1, gr, false), false},
		{"term skipped", day(2026, 3, false, 18, gr, false), day(2026, 3, false, 19, sos.Next(), true), false},
		{"term change without transition", day(2026, 3, false, 18, gr, false), day(2026, 3, false, 19, sos, false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := tt.prev
			got := checkSuccessor(&prev, tt.cur)
			if (got == "") != tt.ok {
				t.Errorf("checkSuccessor() = %q, want ok=%v", got, tt.ok)
			}
		})
	}

	if got := checkSuccessor(nil, day(2026, 1, false, 1, calendar.StartOfSpring, false)); got != "" {
		t.Errorf("checkSuccessor(nil) = %q", got)
	}
}
