package sleep

import (
	"time"

	"healthcore/internal/models"
)

// night starts on 2024-03-01; hours past 24 roll into the next day
func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func span(t models.SampleType, start, end time.Time) models.Sample {
	return models.Sample{Type: t, Start: start, End: end, SourceBundle: "com.watch"}
}

func quantity(t models.SampleType, ts time.Time, v float64) models.Sample {
	return models.Sample{Type: t, Start: ts, End: ts, Value: v, SourceBundle: "com.watch"}
}
