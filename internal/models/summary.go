package models

import (
	"math"
	"time"
)

// SessionSummary compact view of a reconstructed Sleep, cached and published as an event.
// Physiological aggregates are nil when the session has no samples of that kind.
type SessionSummary struct {
	BundlePrefix        string    `json:"bundle_prefix"`
	SleepStart          time.Time `json:"sleep_start"`
	SleepEnd            time.Time `json:"sleep_end"`
	InBedStart          time.Time `json:"in_bed_start"`
	InBedEnd            time.Time `json:"in_bed_end"`
	SegmentCount        int       `json:"segment_count"`
	AsleepMinutes       float64   `json:"asleep_minutes"`
	InBedMinutes        float64   `json:"in_bed_minutes"`
	Efficiency          float64   `json:"efficiency"` // asleep / in bed, 0..1
	HeartRateMean       *float64  `json:"heart_rate_mean,omitempty"`
	EnergyTotal         *float64  `json:"energy_total,omitempty"`
	RespiratoryRateMean *float64  `json:"respiratory_rate_mean,omitempty"`
	ReconstructedAt     time.Time `json:"reconstructed_at"`
}

// Summarize builds the summary of s.
func Summarize(bundlePrefix string, s *Sleep, at time.Time) SessionSummary {
	sleepIv := s.SleepInterval()
	inBedIv := s.InBedInterval()

	sum := SessionSummary{
		BundlePrefix:    bundlePrefix,
		SleepStart:      sleepIv.Start,
		SleepEnd:        sleepIv.End,
		InBedStart:      inBedIv.Start,
		InBedEnd:        inBedIv.End,
		SegmentCount:    len(s.Samples),
		AsleepMinutes:   s.AsleepDuration().Minutes(),
		InBedMinutes:    inBedIv.Duration().Minutes(),
		ReconstructedAt: at,
	}
	if sum.InBedMinutes > 0 {
		sum.Efficiency = math.Min(1, sum.AsleepMinutes/sum.InBedMinutes)
	}

	heart := s.allOf(func(m MicroSleep) []Sample { return m.Heart })
	if len(heart) > 0 {
		v := MeanValue(heart)
		sum.HeartRateMean = &v
	}
	energy := s.allOf(func(m MicroSleep) []Sample { return m.Energy })
	if len(energy) > 0 {
		v := SumValue(energy)
		sum.EnergyTotal = &v
	}
	resp := s.allOf(func(m MicroSleep) []Sample { return m.Respiratory })
	if len(resp) > 0 {
		v := MeanValue(resp)
		sum.RespiratoryRateMean = &v
	}
	return sum
}
