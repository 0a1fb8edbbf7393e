package models

import "math"

// MeanValue arithmetic mean of the sample values; NaN for an empty slice.
func MeanValue(samples []Sample) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	return SumValue(samples) / float64(len(samples))
}

// SumValue sum of the sample values.
func SumValue(samples []Sample) float64 {
	var total float64
	for _, s := range samples {
		total += s.Value
	}
	return total
}
