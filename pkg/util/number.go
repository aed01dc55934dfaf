package util

import (
	"math"
	"strconv"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundTo rounds v to the nearest multiple of step. A non-positive step returns v unchanged.
func RoundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	r := math.Round(v/step) * step
	// strip binary noise such as 0.41000000000000003
	return math.Round(r*1e9) / 1e9
}

// Percent converts a [0,1] ratio into a percentage.
func Percent(ratio float64) float64 {
	return ratio * 100
}

// FormatPercent renders a [0,1] ratio as a percentage with the given decimals, e.g. "75.00%".
func FormatPercent(ratio float64, decimals int) string {
	return strconv.FormatFloat(Percent(ratio), 'f', decimals, 64) + "%"
}
