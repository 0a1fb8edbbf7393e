// Package timeseries fills and thins irregular physiological series.
package timeseries

import (
	"math"
	"time"

	"healthcore/internal/models"
)

// MaxPoints output length cap of Downsample
const MaxPoints = 36

// Interpolate fills gaps between consecutive observed points with one synthetic
// point per second, stepping linearly from the previous value toward the next.
// The gap is measured from the previous point's end to the next point's start,
// rounded to whole seconds. Observed points are emitted unchanged.
func Interpolate(series []models.QuantityData) []models.QuantityData {
	if len(series) < 2 {
		return series
	}

	out := make([]models.QuantityData, 0, len(series))
	out = append(out, series[0])

	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		gap := int(math.Round(cur.Interval.Start.Sub(prev.Interval.End).Seconds()))
		if gap > 1 {
			step := (cur.Value - prev.Value) / float64(gap)
			for j := 1; j < gap; j++ {
				ts := prev.Interval.End.Add(time.Duration(j) * time.Second)
				out = append(out, models.QuantityData{
					Value:    prev.Value + step*float64(j),
					Interval: models.DateInterval{Start: ts, End: ts},
				})
			}
		}
		out = append(out, cur)
	}

	return out
}

// Downsample returns at most MaxPoints evenly spaced points of the interpolated
// series. Inputs shorter than MaxPoints come back unchanged.
func Downsample(series []models.QuantityData) []models.QuantityData {
	if len(series) < MaxPoints {
		return series
	}

	filled := Interpolate(series)
	stride := int(math.Ceil(float64(len(filled)) / float64(MaxPoints)))

	out := make([]models.QuantityData, 0, MaxPoints)
	for i := 0; i < len(filled); i += stride {
		out = append(out, filled[i])
	}
	return out
}
