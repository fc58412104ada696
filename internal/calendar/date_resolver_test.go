package calendar

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/sexagenary"
)

func TestGetDate_HoChiMinh20260505(t *testing.T) {
	c := newConverter(t)
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	got, err := c.GetDate(date(2026, time.May, 5), loc)
	if err != nil {
		t.Fatalf("GetDate() error = %v", err)
	}

	if !got.SolarDate.Equal(date(2026, time.May, 5)) {
		t.Errorf("SolarDate = %v", got.SolarDate)
	}
	want := LunarDate{Year: 2026, Month: LunarMonth{Value: 3}, Day: 19}
	if got.LunarDate != want {
		t.Errorf("LunarDate = %v, want %v", got.LunarDate, want)
	}

	if got.DailySolarTerm.Term != StartOfSummer {
		t.Errorf("Term = %s, want START_OF_SUMMER", got.DailySolarTerm.Term)
	}
	if tr := got.DailySolarTerm.Transition; tr == nil {
		t.Error("Transition = nil")
	} else if diff := tr.Unix() - 1777981680; diff < -60 || diff > 60 {
		t.Errorf("Transition = %d, want within 60s of 1777981680", tr.Unix())
	}

	wantSexagenary := sexagenary.DateTime{
		Date: sexagenary.Date{
			Year:  sexagenary.Cycle{Stem: sexagenary.YangFire, Branch: sexagenary.Horse},
			Month: sexagenary.Cycle{Stem: sexagenary.YangWater, Branch: sexagenary.Dragon},
			Day:   sexagenary.Cycle{Stem: sexagenary.YinEarth, Branch: sexagenary.Cat},
		},
		Hour: sexagenary.Cycle{Stem: sexagenary.YangWood, Branch: sexagenary.Rat},
	}
	if got.Sexagenary != wantSexagenary {
		t.Errorf("Sexagenary = %+v, want %+v", got.Sexagenary, wantSexagenary)
	}

	if len(got.AuspiciousHours) != 6 {
		t.Errorf("AuspiciousHours = %v", got.AuspiciousHours)
	}
	if got.HolidayIDs == nil || len(got.HolidayIDs) != 0 {
		t.Errorf("HolidayIDs = %v, want empty", got.HolidayIDs)
	}
}

func TestGetLunarDate_Vietnam(t *testing.T) {
	c := newConverter(t)
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	tests := []struct {
		name  string
		solar time.Time
		want  LunarDate
	}{
		{"Tet 2024", date(2024, time.February, 10), LunarDate{2024, LunarMonth{1, false}, 1}},
		{"Tet 2025", date(2025, time.January, 29), LunarDate{2025, LunarMonth{1, false}, 1}},
		{"Tet 2026", date(2026, time.February, 17), LunarDate{2026, LunarMonth{1, false}, 1}},
		{"month 12 of 2024", date(2024, time.December, 31), LunarDate{2024, LunarMonth{12, false}, 1}},
		{"leap 2 of 2023", date(2023, time.March, 22), LunarDate{2023, LunarMonth{2, true}, 1}},
		{"month 3 of 2023", date(2023, time.April, 20), LunarDate{2023, LunarMonth{3, false}, 1}},
		{"leap 4 of 2020", date(2020, time.May, 23), LunarDate{2020, LunarMonth{4, true}, 1}},
		{"end of leap 4 of 2020", date(2020, time.June, 20), LunarDate{2020, LunarMonth{4, true}, 29}},
		{"month 5 of 2020", date(2020, time.June, 21), LunarDate{2020, LunarMonth{5, false}, 1}},
		{"leap 6 of 2025", date(2025, time.July, 25), LunarDate{2025, LunarMonth{6, true}, 1}},
		{"month 7 of 2025", date(2025, time.August, 23), LunarDate{2025, LunarMonth{7, false}, 1}},
		{"unix epoch", date(1970, time.January, 1), LunarDate{1969, LunarMonth{11, false}, 24}},
		{"y2k", date(2000, time.January, 1), LunarDate{1999, LunarMonth{11, false}, 25}},
		{"Tet 1985", date(1985, time.January, 21), LunarDate{1985, LunarMonth{1, false}, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.GetLunarDate(tt.solar, loc)
			if err != nil {
				t.Fatalf("GetLunarDate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetLunarDate(%s) = %v, want %v", tt.solar.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestGetLunarDate_MissingZone(t *testing.T) {
	c := newConverter(t)

	if _, err := c.GetLunarDate(date(2026, time.May, 5), nil); !errors.Is(err, ErrMissingZone) {
		t.Errorf("GetLunarDate(nil) error = %v, want ErrMissingZone", err)
	}
	if _, err := c.GetDate(date(2026, time.May, 5), nil); !errors.Is(err, ErrMissingZone) {
		t.Errorf("GetDate(nil) error = %v, want ErrMissingZone", err)
	}
	if _, err := c.Frame(2025, nil); !errors.Is(err, ErrMissingZone) {
		t.Errorf("Frame(nil) error = %v, want ErrMissingZone", err)
	}
}

func TestGetLunarDate_ConsecutiveDays(t *testing.T) {
	c := newConverter(t)
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	prev, err := c.GetLunarDate(date(2025, time.January, 1), loc)
	if err != nil {
		t.Fatalf("GetLunarDate() error = %v", err)
	}

	for d := date(2025, time.January, 2); d.Year() == 2025; d = d.AddDate(0, 0, 1) {
		cur, err := c.GetLunarDate(d, loc)
		if err != nil {
			t.Fatalf("GetLunarDate(%s) error = %v", d.Format(time.DateOnly), err)
		}

		switch {
		case cur.Day == prev.Day+1 && cur.Month == prev.Month && cur.Year == prev.Year:
		case cur.Day == 1 && (prev.Day == 29 || prev.Day == 30):
			if cur.Compare(prev) <= 0 {
				t.Errorf("%s: %v does not follow %v", d.Format(time.DateOnly), cur, prev)
			}
		default:
			t.Errorf("%s: %v does not follow %v", d.Format(time.DateOnly), cur, prev)
		}
		prev = cur
	}
}

func TestFrame_LeapMonths(t *testing.T) {
	c := newConverter(t)
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	tests := []struct {
		anchorYear int
		leapIndex  int
	}{
		{2019, 6},
		{2020, NoLeapMonth},
		{2022, 4},
		{2023, NoLeapMonth},
		{2024, 8},
		{2025, NoLeapMonth},
	}

	for _, tt := range tests {
		frame, err := c.Frame(tt.anchorYear, loc)
		if err != nil {
			t.Fatalf("Frame(%d) error = %v", tt.anchorYear, err)
		}
		if frame.LeapMonthIndex != tt.leapIndex {
			t.Errorf("Frame(%d).LeapMonthIndex = %d, want %d", tt.anchorYear, frame.LeapMonthIndex, tt.leapIndex)
		}
		if frame.HasLeapMonth != (frame.Lunations == 13) {
			t.Errorf("Frame(%d): HasLeapMonth = %v with %d lunations", tt.anchorYear, frame.HasLeapMonth, frame.Lunations)
		}
	}
}

func TestFrame_ExactlyOneLeapMonth(t *testing.T) {
	c := newConverter(t)

	for _, zone := range []string{"Asia/Ho_Chi_Minh", "Asia/Shanghai"} {
		loc := mustLoad(t, zone)
		t.Run(zone, func(t *testing.T) {
			for year := 1700; year <= 2200; year++ {
				frame, err := c.Frame(year, loc)
				if err != nil {
					t.Fatalf("Frame(%d) error = %v", year, err)
				}
				if frame.Lunations != 12 && frame.Lunations != 13 {
					t.Errorf("Frame(%d) has %d lunations", year, frame.Lunations)
				}

				leaps := 0
				for i := 0; i < frame.Lunations; i++ {
					if frame.MonthOf(i).Leap {
						leaps++
					}
				}
				if frame.HasLeapMonth && leaps != 1 {
					t.Errorf("Frame(%d) labels %d leap months", year, leaps)
				}
				if !frame.HasLeapMonth && leaps != 0 {
					t.Errorf("Frame(%d) without leap month labels %d", year, leaps)
				}
			}
		})
	}
}

func TestNovemberNewMoon_ContainsSolsticeDay(t *testing.T) {
	c := newConverter(t)

	tests := []struct {
		zone string
		year int
	}{
		{"Asia/Ho_Chi_Minh", 1888},
		{"Asia/Ho_Chi_Minh", 1964},
		{"Asia/Ho_Chi_Minh", 1983},
		{"Asia/Ho_Chi_Minh", 1984},
		{"Asia/Shanghai", 1964},
		{"America/New_York", 1983},
	}

	for _, tt := range tests {
		loc := mustLoad(t, tt.zone)
		start, err := c.NovemberNewMoon(tt.year, loc)
		if err != nil {
			t.Fatalf("NovemberNewMoon(%d, %s) error = %v", tt.year, tt.zone, err)
		}
		next, err := c.lunar.After(start.PlusDays(1), astro.NewMoon)
		if err != nil {
			t.Fatalf("next new moon after %d/%s: %v", tt.year, tt.zone, err)
		}

		solsticeDay := winterSolstice(c.solar, tt.year).LocalDate(loc)
		if solsticeDay.Before(start.LocalDate(loc)) || !solsticeDay.Before(next.LocalDate(loc)) {
			t.Errorf("%d/%s: month 11 [%s, %s) misses solstice day %s", tt.year, tt.zone,
				start.LocalDate(loc).Format(time.DateOnly), next.LocalDate(loc).Format(time.DateOnly),
				solsticeDay.Format(time.DateOnly))
		}

		frame, err := c.Frame(tt.year, loc)
		if err != nil {
			t.Errorf("Frame(%d, %s) error = %v", tt.year, tt.zone, err)
			continue
		}
		if frame.HasLeapMonth != (frame.Lunations == 13) {
			t.Errorf("Frame(%d, %s): HasLeapMonth = %v with %d lunations", tt.year, tt.zone, frame.HasLeapMonth, frame.Lunations)
		}
	}
}

func TestGetLunarDate_SolsticeNearNewMoon(t *testing.T) {
	c := newConverter(t)
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	for _, d := range []time.Time{
		date(1965, time.June, 1),
		date(1984, time.May, 1),
		date(1984, time.December, 22),
	} {
		if _, err := c.GetLunarDate(d, loc); err != nil {
			t.Errorf("GetLunarDate(%s) error = %v", d.Format(time.DateOnly), err)
		}
	}
}

func TestFrame_Cached(t *testing.T) {
	rec := &countingRecorder{}
	c := newConverter(t, WithRecorder(rec))
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	first, err := c.Frame(2024, loc)
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	hits := rec.hits.Load()

	second, err := c.Frame(2024, loc)
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if first != second {
		t.Errorf("cached frame differs: %+v vs %+v", first, second)
	}
	if rec.hits.Load() != hits+1 {
		t.Errorf("second lookup did not hit the cache")
	}
	if c.CachedFrames() != 1 {
		t.Errorf("CachedFrames() = %d, want 1", c.CachedFrames())
	}
}

func TestLunisolar_Concurrent(t *testing.T) {
	c := newConverter(t)
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	var wg sync.WaitGroup
	results := make([]LunarDate, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := c.GetLunarDate(date(2026, time.May, 5), loc)
			if err != nil {
				t.Errorf("GetLunarDate() error = %v", err)
				return
			}
			results[i] = d
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatalf("concurrent results differ: %v vs %v", r, results[0])
		}
	}
}

func TestGetDate_HolidayMatcher(t *testing.T) {
	matcher := HolidayMatcherFunc(func(ctx HolidayContext) []string {
		if ctx.LunarDate.Month.Value == 1 && ctx.LunarDate.Day == 1 && !ctx.LunarDate.Month.Leap {
			return []string{"TET"}
		}
		return nil
	})
	c := newConverter(t, WithHolidayMatcher(matcher))
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	got, err := c.GetDate(date(2026, time.February, 17), loc)
	if err != nil {
		t.Fatalf("GetDate() error = %v", err)
	}
	if !slices.Equal(got.HolidayIDs, []string{"TET"}) {
		t.Errorf("HolidayIDs = %v, want [TET]", got.HolidayIDs)
	}

	plain, err := c.GetDate(date(2026, time.May, 5), loc)
	if err != nil {
		t.Fatalf("GetDate() error = %v", err)
	}
	if plain.HolidayIDs == nil || len(plain.HolidayIDs) != 0 {
		t.Errorf("HolidayIDs = %#v, want empty non-nil slice", plain.HolidayIDs)
	}
}

func TestInvariantError(t *testing.T) {
	err := error(&InvariantError{AnchorYear: 2033, Err: ErrNoLeapMonth})

	if !errors.Is(err, ErrNoLeapMonth) {
		t.Error("errors.Is(ErrNoLeapMonth) = false")
	}
	var inv *InvariantError
	if !errors.As(err, &inv) || inv.AnchorYear != 2033 {
		t.Errorf("errors.As() = %v", inv)
	}
}
