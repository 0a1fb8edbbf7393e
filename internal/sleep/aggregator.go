package sleep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthcore/internal/healthstore"
	"healthcore/internal/models"

	"go.uber.org/zap"
)

const (
	// FetchWindow how far back raw data is fetched at session start
	FetchWindow = 72 * time.Hour
	// ContinuityGap largest distance between the cursor and the next episode's end
	ContinuityGap = 45 * time.Minute
	// MinInBedDuration shorter episodes are discarded as noise
	MinInBedDuration = 30 * time.Minute
)

// state of one reconstruction
type state int

const (
	stateFetching state = iota
	stateDetecting
	stateValidating
	stateAccepting
	stateTerminatedSuccess
	stateTerminatedEmpty
)

func (s state) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateDetecting:
		return "detecting"
	case stateValidating:
		return "validating"
	case stateAccepting:
		return "accepting"
	case stateTerminatedSuccess:
		return "terminated_success"
	case stateTerminatedEmpty:
		return "terminated_empty"
	default:
		return "unknown"
	}
}

// EpisodeReconciler persists accepted episodes.
type EpisodeReconciler interface {
	Reconcile(ctx context.Context, ms *models.MicroSleep) (bool, error)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used as the initial cursor.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithDetector replaces the default detector.
func WithDetector(d *Detector) Option {
	return func(a *Aggregator) { a.detector = d }
}

// Aggregator walks backward from now, chaining detected episodes into one Sleep.
// At most one reconstruction runs at a time per instance.
type Aggregator struct {
	store      healthstore.Store
	detector   *Detector
	reconciler EpisodeReconciler
	logger     *zap.Logger
	now        func() time.Time
	permit     chan struct{}
}

// NewAggregator creates an aggregator; reconciler may be nil to skip persistence.
func NewAggregator(store healthstore.Store, reconciler EpisodeReconciler, logger *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:      store,
		detector:   NewDetector(nil),
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
		permit:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// session mutable state of one reconstruction
type session struct {
	raw       *models.RawDataSet
	cursor    time.Time
	first     bool
	candidate *models.MicroSleep
	segments  []models.MicroSleep
	persisted int
}

// Reconstruct rebuilds the most recent sleep session from samples whose source matches bundlePrefix.
// Segments of the returned Sleep are ordered oldest first.
func (a *Aggregator) Reconstruct(ctx context.Context, bundlePrefix string) (*models.Sleep, error) {
	select {
	case a.permit <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.permit }()

	s := &session{cursor: a.now(), first: true}
	st := stateFetching

	for {
		switch st {
		case stateFetching:
			raw, err := a.fetch(ctx, bundlePrefix, s.cursor)
			if err != nil {
				return nil, err
			}
			if len(raw.Asleep) == 0 || len(raw.InBed) == 0 {
				a.logger.Info("No raw sleep data in fetch window",
					zap.String("bundle_prefix", bundlePrefix),
					zap.Int("asleep", len(raw.Asleep)),
					zap.Int("in_bed", len(raw.InBed)),
				)
				return nil, ErrNotEnoughRawData
			}
			s.raw = raw
			st = stateDetecting

		case stateDetecting:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ms, err := a.detector.Detect(s.raw.EndingBy(s.cursor), s.first)
			if err != nil {
				a.logger.Debug("Detection stopped", zap.Time("cursor", s.cursor), zap.Error(err))
				st = terminal(s)
				continue
			}
			s.candidate = ms
			st = stateValidating

		case stateValidating:
			st = a.validate(s)

		case stateAccepting:
			s.segments = append(s.segments, *s.candidate)
			s.first = false
			if a.reconciler != nil {
				written, err := a.reconciler.Reconcile(ctx, s.candidate)
				if err != nil {
					return nil, err
				}
				if written {
					s.persisted++
				}
			}
			st = stateDetecting

		case stateTerminatedSuccess:
			reverse(s.segments)
			a.logger.Info("Sleep session reconstructed",
				zap.String("bundle_prefix", bundlePrefix),
				zap.Int("segments", len(s.segments)),
				zap.Int("persisted", s.persisted),
			)
			return &models.Sleep{Samples: s.segments}, nil

		case stateTerminatedEmpty:
			return nil, ErrNotEnoughRawData

		default:
			return nil, fmt.Errorf("reconstruction reached unknown state %s", st)
		}
	}
}

// validate applies the continuity check, moves the cursor and filters short episodes.
func (a *Aggregator) validate(s *session) state {
	ms := s.candidate

	continuous := s.first || len(s.segments) == 0 ||
		s.cursor.Sub(ms.SleepInterval.End) <= ContinuityGap
	if !continuous {
		a.logger.Debug("Episode not contiguous with session",
			zap.Time("cursor", s.cursor),
			zap.Time("episode_end", ms.SleepInterval.End),
		)
		return terminal(s)
	}

	// a cursor that cannot move back would detect the same episode forever
	if !ms.SleepInterval.Start.Before(s.cursor) {
		a.logger.Warn("Cursor did not move back, stopping",
			zap.Time("cursor", s.cursor),
			zap.Time("episode_start", ms.SleepInterval.Start),
		)
		return terminal(s)
	}
	s.cursor = ms.SleepInterval.Start

	if ms.InBedInterval.Duration() < MinInBedDuration {
		a.logger.Debug("Discarding short episode",
			zap.Time("in_bed_start", ms.InBedInterval.Start),
			zap.Duration("in_bed", ms.InBedInterval.Duration()),
		)
		return stateDetecting
	}
	return stateAccepting
}

// fetch loads the five raw collections for [now-FetchWindow, now], newest end first.
func (a *Aggregator) fetch(ctx context.Context, bundlePrefix string, now time.Time) (*models.RawDataSet, error) {
	window := models.NewDateInterval(now.Add(-FetchWindow), now)

	raw := &models.RawDataSet{}
	targets := []struct {
		t   models.SampleType
		dst *[]models.Sample
	}{
		{models.SampleTypeAsleep, &raw.Asleep},
		{models.SampleTypeInBed, &raw.InBed},
		{models.SampleTypeHeartRate, &raw.Heart},
		{models.SampleTypeActiveEnergy, &raw.Energy},
		{models.SampleTypeRespiratoryRate, &raw.Respiratory},
	}
	for _, target := range targets {
		samples, err := a.store.Query(ctx, healthstore.Query{
			Type:     target.t,
			Interval: window,
			Sort:     healthstore.SortEndDescending,
			Source:   healthstore.SourceFilter{BundlePrefix: bundlePrefix},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s samples: %w", target.t, err)
		}
		*target.dst = samples
	}
	return raw, nil
}

func terminal(s *session) state {
	if len(s.segments) == 0 {
		return stateTerminatedEmpty
	}
	return stateTerminatedSuccess
}

func reverse(segments []models.MicroSleep) {
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
}

// IsNoData reports whether err means there was nothing to reconstruct.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNotEnoughRawData) || errors.Is(err, ErrMicroSleepNotFound)
}
