package models

import "time"

// RawDataSet the five raw collections of one fetch window, each sorted by End descending
type RawDataSet struct {
	Asleep      []Sample
	InBed       []Sample
	Heart       []Sample
	Energy      []Sample
	Respiratory []Sample
}

// EndingBy returns a copy holding only samples that end at or before cursor.
func (r *RawDataSet) EndingBy(cursor time.Time) *RawDataSet {
	return &RawDataSet{
		Asleep:      endingBy(r.Asleep, cursor),
		InBed:       endingBy(r.InBed, cursor),
		Heart:       endingBy(r.Heart, cursor),
		Energy:      endingBy(r.Energy, cursor),
		Respiratory: endingBy(r.Respiratory, cursor),
	}
}

func endingBy(samples []Sample, cursor time.Time) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if !s.End.After(cursor) {
			out = append(out, s)
		}
	}
	return out
}

// PhaseKind sleep depth classification
type PhaseKind string

const (
	PhaseAwake PhaseKind = "awake"
	PhaseLight PhaseKind = "light"
	PhaseDeep  PhaseKind = "deep"
)

// SleepPhase a classified sub-interval of a micro-sleep
type SleepPhase struct {
	Kind     PhaseKind    `json:"kind"`
	Interval DateInterval `json:"interval"`
}

// MicroSleep one detected contiguous sleep episode.
// InBedInterval.End >= SleepInterval.End always holds for detector output.
type MicroSleep struct {
	SleepInterval DateInterval `json:"sleep_interval"`
	InBedInterval DateInterval `json:"in_bed_interval"`
	Phases        []SleepPhase `json:"phases,omitempty"`

	Heart       []Sample `json:"-"`
	Energy      []Sample `json:"-"`
	Respiratory []Sample `json:"-"`
}

// HeartRate heart samples of the episode as a series.
func (m MicroSleep) HeartRate() []QuantityData { return QuantitiesOf(m.Heart) }

// EnergyBurned energy samples of the episode as a series.
func (m MicroSleep) EnergyBurned() []QuantityData { return QuantitiesOf(m.Energy) }

// RespiratoryRate respiratory samples of the episode as a series.
func (m MicroSleep) RespiratoryRate() []QuantityData { return QuantitiesOf(m.Respiratory) }

// Sleep one reconstructed rest period; Samples are ordered oldest first.
type Sleep struct {
	Samples []MicroSleep `json:"samples"`
}

// SleepInterval spans every segment's asleep interval.
func (s *Sleep) SleepInterval() DateInterval {
	return s.span(func(m MicroSleep) DateInterval { return m.SleepInterval })
}

// InBedInterval spans every segment's in-bed interval.
func (s *Sleep) InBedInterval() DateInterval {
	return s.span(func(m MicroSleep) DateInterval { return m.InBedInterval })
}

func (s *Sleep) span(pick func(MicroSleep) DateInterval) DateInterval {
	if len(s.Samples) == 0 {
		return DateInterval{}
	}
	out := pick(s.Samples[0])
	for _, m := range s.Samples[1:] {
		iv := pick(m)
		if iv.Start.Before(out.Start) {
			out.Start = iv.Start
		}
		if iv.End.After(out.End) {
			out.End = iv.End
		}
	}
	return out
}

// AsleepDuration sum of the segments' asleep durations.
func (s *Sleep) AsleepDuration() time.Duration {
	var d time.Duration
	for _, m := range s.Samples {
		d += m.SleepInterval.Duration()
	}
	return d
}

// HeartRate concatenated heart series across segments.
func (s *Sleep) HeartRate() []QuantityData {
	return s.concat(func(m MicroSleep) []Sample { return m.Heart })
}

// EnergyBurned concatenated energy series across segments.
func (s *Sleep) EnergyBurned() []QuantityData {
	return s.concat(func(m MicroSleep) []Sample { return m.Energy })
}

// RespiratoryRate concatenated respiratory series across segments.
func (s *Sleep) RespiratoryRate() []QuantityData {
	return s.concat(func(m MicroSleep) []Sample { return m.Respiratory })
}

func (s *Sleep) concat(pick func(MicroSleep) []Sample) []QuantityData {
	var out []QuantityData
	for _, m := range s.Samples {
		out = append(out, QuantitiesOf(pick(m))...)
	}
	return out
}

func (s *Sleep) allOf(pick func(MicroSleep) []Sample) []Sample {
	var out []Sample
	for _, m := range s.Samples {
		out = append(out, pick(m)...)
	}
	return out
}
