package calibration

import "math"

// RoundTo rounds value to the given number of decimals. The fractional
// magnitude of the scaled value is compared against 0.5 regardless of sign:
// below 0.5 truncates toward zero, at or above 0.5 rounds away from zero.
//
// Downstream bound checks compare against the rounded value, so this must
// stay bit-for-bit stable on IEEE-754 doubles.
func RoundTo(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	scaled := value * pow
	mag := math.Abs(scaled)
	if mag-math.Floor(mag) < 0.5 {
		return math.Trunc(scaled) / pow
	}
	if scaled < 0 {
		return math.Floor(scaled) / pow
	}
	return math.Ceil(scaled) / pow
}
