// Package astro computes the apparent solar longitude and the instants of
// lunar phases that the lunisolar calendar is built on.
package astro

import "math"

// NormalizeAngle reduces degrees into [0, 360) by repeated addition or
// subtraction of 360. Non-finite input is returned unchanged.
func NormalizeAngle(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return degrees
	}
	for degrees >= 360 {
		degrees -= 360
	}
	for degrees < 0 {
		degrees += 360
	}
	return degrees
}

func radians(degrees float64) float64 { return degrees * math.Pi / 180 }

func degrees(radians float64) float64 { return radians * 180 / math.Pi }

// correctNutationAberration applies the low-precision nutation and aberration
// correction to a geometric longitude.
func correctNutationAberration(longitude, centuries float64) float64 {
	omega := 125.04 - 1934.136*centuries
	return longitude - 0.00569 - 0.00478*math.Sin(radians(omega))
}
