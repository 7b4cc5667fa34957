// Package stats provides the small descriptive statistics used by scorers.
package stats

import "math"

// Sum returns the sum of values; 0 for an empty slice.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	return Sum(values) / float64(len(values)), nil
}

// Variance returns the population variance of values.
func Variance(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	squares := make([]float64, len(values))
	for i, v := range values {
		d := v - mean
		squares[i] = d * d
	}
	return Mean(squares)
}

// StdDev returns the population standard deviation of values.
// The absolute value guards against a tiny negative variance from rounding.
func StdDev(values []float64) (float64, error) {
	variance, err := Variance(values)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(math.Abs(variance)), nil
}

// Pluck projects one numeric field out of each item.
func Pluck[T any](items []T, field func(T) float64) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		out[i] = field(item)
	}
	return out
}
