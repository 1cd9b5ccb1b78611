package common

import "golang.org/x/exp/constraints"

// Clamp restricts v to the closed interval [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DivCeil computes ceil(a/b) for positive integers, used for MCU-grid and
// padded-dimension arithmetic.
func DivCeil[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}
