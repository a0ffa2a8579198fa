// Package money holds the display-boundary rounding rules for monetary
// amounts. Internal accumulation always works on the unrounded per-line
// prices; only the value shown to the user (or sent as the externally
// visible total) passes through here.
package money

import (
	"math"
	"strconv"
)

// Round rounds to two decimal places, half away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Format renders an amount with exactly two decimals, e.g. "169.98".
func Format(v float64) string {
	return strconv.FormatFloat(Round(v), 'f', 2, 64)
}

// Sum adds unrounded amounts. Intermediate sums are deliberately not
// re-rounded; rounding happens once, at the display boundary.
func Sum(amounts ...float64) float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}

	return total
}
