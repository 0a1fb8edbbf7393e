package models

import "time"

// DateInterval closed time range
type DateInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateInterval builds an interval; swapped bounds are normalised.
func NewDateInterval(start, end time.Time) DateInterval {
	if end.Before(start) {
		start, end = end, start
	}
	return DateInterval{Start: start, End: end}
}

// Duration End - Start.
func (i DateInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Intersects reports whether the two ranges share at least one instant.
func (i DateInterval) Intersects(o DateInterval) bool {
	return !i.Start.After(o.End) && !o.Start.After(i.End)
}

// Contains reports whether t lies within the range, bounds included.
func (i DateInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Expanded widens the range by d on both sides.
func (i DateInterval) Expanded(d time.Duration) DateInterval {
	return DateInterval{Start: i.Start.Add(-d), End: i.End.Add(d)}
}

// IsZero true for the zero interval.
func (i DateInterval) IsZero() bool {
	return i.Start.IsZero() && i.End.IsZero()
}
