package models

import (
	"fmt"
	"time"
)

// SampleType closed set of sample kinds the core reads or writes
type SampleType string

const (
	SampleTypeAsleep          SampleType = "asleep"
	SampleTypeInBed           SampleType = "inBed"
	SampleTypeHeartRate       SampleType = "heartRate"
	SampleTypeActiveEnergy    SampleType = "activeEnergy"
	SampleTypeRespiratoryRate SampleType = "respiratoryRate"
)

// AllSampleTypes in fetch order
var AllSampleTypes = []SampleType{
	SampleTypeAsleep,
	SampleTypeInBed,
	SampleTypeHeartRate,
	SampleTypeActiveEnergy,
	SampleTypeRespiratoryRate,
}

// Valid reports whether t is one of the known variants.
func (t SampleType) Valid() bool {
	for _, known := range AllSampleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsCategory true for the sleep-analysis categories (asleep / in bed).
func (t SampleType) IsCategory() bool {
	return t == SampleTypeAsleep || t == SampleTypeInBed
}

func (t SampleType) String() string { return string(t) }

// MarshalText implements encoding.TextMarshaler.
func (t SampleType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown sample type %q", string(t))
	}
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SampleType) UnmarshalText(b []byte) error {
	v := SampleType(b)
	if !v.Valid() {
		return fmt.Errorf("unknown sample type %q", string(b))
	}
	*t = v
	return nil
}

// ParseSampleType parses a sample type name.
func ParseSampleType(s string) (SampleType, error) {
	var t SampleType
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return t, nil
}

// Sample one timestamped record from the health-data store.
// Category samples carry Value 0; quantity samples carry the value in the type's unit.
type Sample struct {
	ID           string            `json:"id" yaml:"id,omitempty"`
	Type         SampleType        `json:"type" yaml:"type"`
	Start        time.Time         `json:"start" yaml:"start"`
	End          time.Time         `json:"end" yaml:"end"`
	Value        float64           `json:"value" yaml:"value,omitempty"`
	SourceBundle string            `json:"source_bundle" yaml:"source"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Interval the sample's [Start, End) range.
func (s Sample) Interval() DateInterval {
	return DateInterval{Start: s.Start, End: s.End}
}

// Quantity converts the sample to a QuantityData point.
func (s Sample) Quantity() QuantityData {
	return QuantityData{Value: s.Value, Interval: s.Interval()}
}

// QuantitiesOf maps samples to QuantityData in the same order.
func QuantitiesOf(samples []Sample) []QuantityData {
	out := make([]QuantityData, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Quantity())
	}
	return out
}
