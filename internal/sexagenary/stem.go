// Package sexagenary names years, months, days and hours by the 60-value
// stem-branch cycle.
//
// All four pillars are pure modular arithmetic over a fixed anchor:
// 1970-01-01 is a YIN_METAL SNAKE day and 1970 a YANG_METAL DOG year.
package sexagenary

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned for a stem or branch index outside its cycle.
var ErrIndexOutOfRange = errors.New("index out of range")

// YinYang is the polarity of a heavenly stem.
type YinYang int

const (
	Yang YinYang = iota
	Yin
)

func (y YinYang) String() string {
	if y == Yin {
		return "YIN"
	}
	return "YANG"
}

// FiveElement is the phase associated with a heavenly stem.
type FiveElement int

const (
	Wood FiveElement = iota
	Fire
	Earth
	Metal
	Water
)

var elementNames = [...]string{"WOOD", "FIRE", "EARTH", "METAL", "WATER"}

func (e FiveElement) String() string {
	if e < Wood || e > Water {
		return fmt.Sprintf("FiveElement(%d)", int(e))
	}
	return elementNames[e]
}

// HeavenlyStem is one of the ten celestial stems, indexed 0..9.
type HeavenlyStem int

const (
	YangWood HeavenlyStem = iota
	YinWood
	YangFire
	YinFire
	YangEarth
	YinEarth
	YangMetal
	YinMetal
	YangWater
	YinWater
)

const stemCount = 10

var stemNames = [stemCount]string{
	"YANG_WOOD", "YIN_WOOD", "YANG_FIRE", "YIN_FIRE", "YANG_EARTH",
	"YIN_EARTH", "YANG_METAL", "YIN_METAL", "YANG_WATER", "YIN_WATER",
}

// StemOfIndex returns the stem with index i.
func StemOfIndex(i int) (HeavenlyStem, error) {
	if i < 0 || i >= stemCount {
		return 0, fmt.Errorf("heavenly stem %d: %w", i, ErrIndexOutOfRange)
	}
	return HeavenlyStem(i), nil
}

// Index returns the stem's position in the cycle.
func (s HeavenlyStem) Index() int { return int(s) }

// YinYang alternates Yang, Yin through the cycle.
func (s HeavenlyStem) YinYang() YinYang { return YinYang(s % 2) }

// Element pairs consecutive stems: two wood, two fire, and so on.
func (s HeavenlyStem) Element() FiveElement { return FiveElement(s / 2) }

func (s HeavenlyStem) String() string {
	if s < 0 || s >= stemCount {
		return fmt.Sprintf("HeavenlyStem(%d)", int(s))
	}
	return stemNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s HeavenlyStem) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// EarthlyBranch is one of the twelve terrestrial branches, indexed 0..11.
type EarthlyBranch int

const (
	Rat EarthlyBranch = iota
	WaterBuffalo
	Tiger
	Cat
	Dragon
	Snake
	Horse
	Goat
	Monkey
	Rooster
	Dog
	Pig
)

const branchCount = 12

var branchNames = [branchCount]string{
	"RAT", "WATER_BUFFALO", "TIGER", "CAT", "DRAGON", "SNAKE",
	"HORSE", "GOAT", "MONKEY", "ROOSTER", "DOG", "PIG",
}

// BranchOfIndex returns the branch with index i.
func BranchOfIndex(i int) (EarthlyBranch, error) {
	if i < 0 || i >= branchCount {
		return 0, fmt.Errorf("earthly branch %d: %w", i, ErrIndexOutOfRange)
	}
	return EarthlyBranch(i), nil
}

// Index returns the branch's position in the cycle.
func (b EarthlyBranch) Index() int { return int(b) }

func (b EarthlyBranch) String() string {
	if b < 0 || b >= branchCount {
		return fmt.Sprintf("EarthlyBranch(%d)", int(b))
	}
	return branchNames[b]
}

// MarshalText implements encoding.TextMarshaler.
func (b EarthlyBranch) MarshalText() ([]byte, error) { return []byte(b.String()), nil }
