package sleep

import (
	"time"

	"healthcore/internal/models"
)

// ContiguityGap largest gap between consecutive samples of one cluster.
const ContiguityGap = 15 * time.Minute

// PhaseDetector classifies a detected episode into depth phases.
type PhaseDetector interface {
	DetectPhases(ms *models.MicroSleep) []models.SleepPhase
}

// Detector finds the most recent contiguous episode in a raw slice.
type Detector struct {
	gap    time.Duration
	phases PhaseDetector
}

// NewDetector creates a detector with the default contiguity gap.
// phases may be nil, in which case episodes carry no phases.
func NewDetector(phases PhaseDetector) *Detector {
	return &Detector{gap: ContiguityGap, phases: phases}
}

// Detect builds one MicroSleep from raw, whose collections must be sorted by End descending.
func (d *Detector) Detect(raw *models.RawDataSet, isFirstFetch bool) (*models.MicroSleep, error) {
	if raw == nil || raw.Asleep == nil || raw.InBed == nil {
		return nil, ErrNotEnoughRawData
	}

	asleep := d.contiguousRun(raw.Asleep)
	inBed := d.contiguousRun(raw.InBed)

	switch {
	case len(asleep) == 0 && len(inBed) == 0:
		return nil, ErrMicroSleepNotFound
	case len(asleep) == 0:
		asleep = inBed
	case len(inBed) == 0:
		inBed = asleep
	}

	sleepIv := clusterInterval(asleep)
	inBedIv := clusterInterval(inBed)

	// Disjoint clusters on the first pass come from a charging gap at the category
	// boundary: keep the one closer to now.
	if isFirstFetch && !sleepIv.Intersects(inBedIv) {
		if sleepIv.End.Before(inBedIv.End) {
			sleepIv = inBedIv
		} else {
			inBedIv = sleepIv
		}
	}
	if inBedIv.End.Before(sleepIv.End) {
		inBedIv.End = sleepIv.End
	}

	ms := &models.MicroSleep{
		SleepInterval: sleepIv,
		InBedInterval: inBedIv,
		Heart:         intersecting(raw.Heart, sleepIv),
		Energy:        intersecting(raw.Energy, sleepIv),
		Respiratory:   intersecting(raw.Respiratory, sleepIv),
	}
	if d.phases != nil {
		ms.Phases = d.phases.DetectPhases(ms)
	}
	return ms, nil
}

// contiguousRun walks back from the newest sample while the gap stays within d.gap.
func (d *Detector) contiguousRun(samples []models.Sample) []models.Sample {
	if len(samples) == 0 {
		return nil
	}
	run := []models.Sample{samples[0]}
	for _, next := range samples[1:] {
		accepted := run[len(run)-1]
		if accepted.Start.Sub(next.End) > d.gap {
			break
		}
		run = append(run, next)
	}
	return run
}

func clusterInterval(samples []models.Sample) models.DateInterval {
	iv := samples[0].Interval()
	for _, s := range samples[1:] {
		if s.Start.Before(iv.Start) {
			iv.Start = s.Start
		}
		if s.End.After(iv.End) {
			iv.End = s.End
		}
	}
	return iv
}

func intersecting(samples []models.Sample, iv models.DateInterval) []models.Sample {
	out := make([]models.Sample, 0)
	for _, s := range samples {
		if s.Interval().Intersects(iv) {
			out = append(out, s)
		}
	}
	return out
}
