package blockmatmul

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// OutputDecimals is the number of decimal places of the output values.
const OutputDecimals = 2

// RoundHalfUp rounds v to the given number of decimal places, with ties going away from zero.
//
// Rounding is done on the shortest decimal representation of v (the one strconv.FormatFloat
// prints with precision -1), so 1.005 rounds to 1.01, even though the nearest float64 to
// 1.005 is slightly below it. NaN, ±Inf and negative places return v unchanged.
func RoundHalfUp(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || places < 0 {
		return v
	}
	rounded, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	if rounded == 0 {
		// No negative zeros.
		return 0
	}
	return rounded
}

// FormatValue rounds v half-up to OutputDecimals places and prints it with exactly that many decimals.
func FormatValue(v float64) string {
	return strconv.FormatFloat(RoundHalfUp(v, OutputDecimals), 'f', OutputDecimals, 64)
}
