// Package timescale provides the time scales, Julian day counts and instants
// used by the astronomical calculations.
package timescale

import (
	"errors"
	"fmt"
)

// Scale identifies the time scale a Julian day count is expressed in.
type Scale int

// Supported time scales.
//
// TT is used for orbital calculations. UT and UTC are used for civil events
// and are treated as interchangeable (|UT - UTC| <= 0.9s).
const (
	TT Scale = iota + 1
	UT
	UTC
)

// ErrInvalidScale is returned when a Julian day is built with an unknown scale.
var ErrInvalidScale = errors.New("invalid time scale")

// IsValid reports whether s is one of the supported scales.
func (s Scale) IsValid() bool {
	switch s {
	case TT, UT, UTC:
		return true
	default:
		return false
	}
}

func (s Scale) String() string {
	switch s {
	case TT:
		return "TT"
	case UT:
		return "UT"
	case UTC:
		return "UTC"
	default:
		return fmt.Sprintf("Scale(%d)", int(s))
	}
}
