// Package floatutils provides utilities for working with floats
package floatutils

import "math"

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipSlice clips each element of values in place
func ClipSlice(values []float64, min, max float64) {
	for i := range values {
		values[i] = Clip(values[i], min, max)
	}
}

// Sign returns -1 for negative values and 1 otherwise
func Sign(value float64) float64 {
	if value < 0 {
		return -1.0
	}
	return 1.0
}

// Wrap wraps value into the interval [min, max)
func Wrap(value, min, max float64) float64 {
	width := max - min
	wrapped := math.Mod(value-min, width)
	if wrapped < 0 {
		wrapped += width
	}
	return wrapped + min
}

// Ones returns a slice of n ones
func Ones(n int) []float64 {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1.0
	}
	return ones
}
