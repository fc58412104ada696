package sexagenary

import (
	"errors"
	"testing"
	"time"

	"github.com/zapponejosh/amlich-api/internal/timescale"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func TestStem_Attributes(t *testing.T) {
	tests := []struct {
		stem    HeavenlyStem
		yinYang YinYang
		element FiveElement
	}{
		{YangWood, Yang, Wood},
		{YinWood, Yin, Wood},
		{YangFire, Yang, Fire},
		{YinEarth, Yin, Earth},
		{YangMetal, Yang, Metal},
		{YinMetal, Yin, Metal},
		{YinWater, Yin, Water},
	}

	for _, tt := range tests {
		if got := tt.stem.YinYang(); got != tt.yinYang {
			t.Errorf("%s.YinYang() = %s, want %s", tt.stem, got, tt.yinYang)
		}
		if got := tt.stem.Element(); got != tt.element {
			t.Errorf("%s.Element() = %s, want %s", tt.stem, got, tt.element)
		}
	}
}

func TestOfIndex(t *testing.T) {
	if s, err := StemOfIndex(7); err != nil || s != YinMetal {
		t.Errorf("StemOfIndex(7) = %v, %v", s, err)
	}
	if b, err := BranchOfIndex(10); err != nil || b != Dog {
		t.Errorf("BranchOfIndex(10) = %v, %v", b, err)
	}

	for _, i := range []int{-1, 10} {
		if _, err := StemOfIndex(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("StemOfIndex(%d) error = %v", i, err)
		}
	}
	for _, i := range []int{-1, 12} {
		if _, err := BranchOfIndex(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("BranchOfIndex(%d) error = %v", i, err)
		}
	}
}

func TestOfDay_Epoch(t *testing.T) {
	loc := mustLoad(t, "Asia/Ho_Chi_Minh")

	got := OfDay(timescale.MomentOf(0), loc)
	want := Cycle{Stem: YinMetal, Branch: Snake}
	if got != want {
		t.Errorf("OfDay(0) = %v, want %v", got, want)
	}
}

func TestOfDay_BeforeEpoch(t *testing.T) {
	// 1969-12-31 is one step back from YIN_METAL SNAKE.
	got := OfDay(timescale.MomentOf(-86400), time.UTC)
	want := Cycle{Stem: YangMetal, Branch: Dragon}
	if got != want {
		t.Errorf("OfDay(-1 day) = %v, want %v", got, want)
	}
}

func TestOfDay_Advances(t *testing.T) {
	start := timescale.MomentOf(1735689600)
	prev := OfDay(start, time.UTC).Index()

	for i := int64(1); i <= 120; i++ {
		cur := OfDay(start.PlusDays(i), time.UTC).Index()
		if cur != (prev+1)%60 {
			t.Fatalf("day %d: index %d does not follow %d", i, cur, prev)
		}
		prev = cur
	}
}

func TestOfYear(t *testing.T) {
	tests := []struct {
		year int
		want Cycle
	}{
		{1970, Cycle{YangMetal, Dog}},
		{1984, Cycle{YangWood, Rat}},
		{2024, Cycle{YangWood, Dragon}},
		{2025, Cycle{YinWood, Snake}},
		{2026, Cycle{YangFire, Horse}},
		{1900, Cycle{YangMetal, Rat}},
	}

	for _, tt := range tests {
		if got := OfYear(tt.year); got != tt.want {
			t.Errorf("OfYear(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestOfMonth(t *testing.T) {
	year := OfYear(2026)

	tests := []struct {
		month int
		want  Cycle
	}{
		{1, Cycle{YangMetal, Tiger}},
		{3, Cycle{YangWater, Dragon}},
		{12, Cycle{YinMetal, WaterBuffalo}},
	}

	for _, tt := range tests {
		if got := OfMonth(year, tt.month); got != tt.want {
			t.Errorf("OfMonth(2026, %d) = %v, want %v", tt.month, got, tt.want)
		}
	}
}

func TestOfHour(t *testing.T) {
	if got := OfHour(Cycle{YinEarth, Cat}); got != (Cycle{YangWood, Rat}) {
		t.Errorf("OfHour(YIN_EARTH CAT) = %v, want YANG_WOOD RAT", got)
	}
	if got := OfHour(Cycle{YinMetal, Snake}); got != (Cycle{YangEarth, Rat}) {
		t.Errorf("OfHour(YIN_METAL SNAKE) = %v, want YANG_EARTH RAT", got)
	}
}

func TestCycle_Index(t *testing.T) {
	if got := (Cycle{YangWood, Rat}).Index(); got != 0 {
		t.Errorf("Index() = %d, want 0", got)
	}
	if got := (Cycle{YinWater, Pig}).Index(); got != 59 {
		t.Errorf("Index() = %d, want 59", got)
	}
	if got := (Cycle{YangWood, WaterBuffalo}).Index(); got != -1 {
		t.Errorf("Index() = %d, want -1", got)
	}
}
