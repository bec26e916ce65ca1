package core

import "math"

// RoundHalfUp rounds x to the nearest integer, halves away from zero for
// positive values. Used for sample counts derived from rate ratios.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
