// Package service wires the sleep core to caching, events and periodic polling.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthcore/internal/cache"
	"healthcore/internal/config"
	"healthcore/internal/events"
	"healthcore/internal/healthstore"
	"healthcore/internal/metrics"
	"healthcore/internal/models"
	"healthcore/internal/sleep"
	"healthcore/internal/timeseries"

	"go.uber.org/zap"
)

var (
	// ErrSummaryNotFound no cached summary for the bundle prefix
	ErrSummaryNotFound = errors.New("session summary not found")
	// ErrInvalidSeriesType series requested for a category type
	ErrInvalidSeriesType = errors.New("sample type has no numeric series")
)

// Session a reconstructed Sleep and its summary
type Session struct {
	Sleep   *models.Sleep
	Summary models.SessionSummary
}

// Option configures a SleepService.
type Option func(*SleepService)

// WithClock overrides the time source of the service and its aggregator.
func WithClock(now func() time.Time) Option {
	return func(s *SleepService) { s.now = now }
}

// SleepService sleep session reconstruction service
type SleepService struct {
	cfg        *config.Config
	store      healthstore.Store
	aggregator *sleep.Aggregator
	sessions   *cache.SessionCache // nil when caching is disabled
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	stopOnce sync.Once
}

// NewSleepService creates the service; sessions, publisher and m may be nil.
func NewSleepService(
	cfg *config.Config,
	store healthstore.Store,
	sessions *cache.SessionCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *SleepService {
	s := &SleepService{
		cfg:       cfg,
		store:     store,
		sessions:  sessions,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}

	var reconciler sleep.EpisodeReconciler
	if cfg.Sleep.Persist {
		reconciler = sleep.NewReconciler(store, cfg.Sleep.BundleID, logger)
	}
	s.aggregator = sleep.NewAggregator(store, reconciler, logger, sleep.WithClock(s.now))
	return s
}

// Authorize requests read access to every sample type and, when persisting, write access to the sleep categories.
func (s *SleepService) Authorize(ctx context.Context) error {
	var write []models.SampleType
	if s.cfg.Sleep.Persist {
		write = []models.SampleType{models.SampleTypeAsleep, models.SampleTypeInBed}
	}
	if err := s.store.Authorize(ctx, models.AllSampleTypes, write); err != nil {
		return fmt.Errorf("failed to authorize store access: %w", err)
	}
	s.logger.Info("Store access authorized", zap.Int("write_types", len(write)))
	return nil
}

// bundleOrDefault falls back to the configured prefix.
func (s *SleepService) bundleOrDefault(bundlePrefix string) string {
	if bundlePrefix == "" {
		return s.cfg.Sleep.BundlePrefix
	}
	return bundlePrefix
}

// Reconstruct rebuilds the latest session, caches its summary and publishes an event.
// Cache and publish failures are logged only.
func (s *SleepService) Reconstruct(ctx context.Context, bundlePrefix string) (*Session, error) {
	bundlePrefix = s.bundleOrDefault(bundlePrefix)
	start := time.Now()

	result, err := s.aggregator.Reconstruct(ctx, bundlePrefix)
	if err != nil {
		if sleep.IsNoData(err) {
			s.metrics.ObserveReconstruction(metrics.OutcomeEmpty, time.Since(start), 0)
			s.publish(ctx, events.SessionEvent{
				Type:       events.TypeSessionEmpty,
				Bundle:     bundlePrefix,
				OccurredAt: s.now(),
			})
		} else {
			s.metrics.ObserveReconstruction(metrics.OutcomeError, time.Since(start), 0)
		}
		return nil, err
	}
	s.metrics.ObserveReconstruction(metrics.OutcomeSuccess, time.Since(start), len(result.Samples))

	summary := models.Summarize(bundlePrefix, result, s.now())
	if s.sessions != nil {
		if err := s.sessions.PutSummary(ctx, summary); err != nil {
			s.logger.Warn("Failed to cache session summary",
				zap.String("bundle_prefix", bundlePrefix),
				zap.Error(err),
			)
		}
	}
	s.publish(ctx, events.SessionEvent{
		Type:       events.TypeSessionReconstructed,
		Bundle:     bundlePrefix,
		Summary:    &summary,
		OccurredAt: summary.ReconstructedAt,
	})

	return &Session{Sleep: result, Summary: summary}, nil
}

func (s *SleepService) publish(ctx context.Context, event events.SessionEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.PublishError()
		s.logger.Warn("Failed to publish session event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}
}

// LatestSummary returns the cached summary of the last reconstruction.
func (s *SleepService) LatestSummary(ctx context.Context, bundlePrefix string) (*models.SessionSummary, error) {
	bundlePrefix = s.bundleOrDefault(bundlePrefix)
	if s.sessions == nil {
		return nil, ErrSummaryNotFound
	}

	summary, err := s.sessions.GetSummary(ctx, bundlePrefix)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.CacheMiss()
			return nil, ErrSummaryNotFound
		}
		return nil, err
	}
	s.metrics.CacheHit()
	return summary, nil
}

// QuantitySeries reads a quantity type oldest first and normalizes it to one-second cadence,
// or to at most timeseries.MaxPoints points when downsample is set.
func (s *SleepService) QuantitySeries(
	ctx context.Context,
	t models.SampleType,
	interval models.DateInterval,
	bundlePrefix string,
	downsample bool,
) ([]models.QuantityData, error) {
	if !t.Valid() || t.IsCategory() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSeriesType, t)
	}

	samples, err := s.store.Query(ctx, healthstore.Query{
		Type:     t,
		Interval: interval,
		Sort:     healthstore.SortStartAscending,
		Source:   healthstore.SourceFilter{BundlePrefix: s.bundleOrDefault(bundlePrefix)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s series: %w", t, err)
	}

	series := models.QuantitiesOf(samples)
	if downsample {
		return timeseries.Downsample(series), nil
	}
	return timeseries.Interpolate(series), nil
}

// Start reconstructs the configured bundle prefix every PollInterval until ctx is done.
// With polling disabled it just waits for ctx.
func (s *SleepService) Start(ctx context.Context) error {
	interval := s.cfg.Sleep.PollInterval
	if interval <= 0 {
		s.logger.Info("Periodic reconstruction disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting polling mode",
		zap.Duration("interval", interval),
		zap.String("bundle_prefix", s.cfg.Sleep.BundlePrefix),
	)

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *SleepService) poll(ctx context.Context) {
	session, err := s.Reconstruct(ctx, s.cfg.Sleep.BundlePrefix)
	switch {
	case err == nil:
		s.logger.Info("Polled sleep session",
			zap.Int("segments", session.Summary.SegmentCount),
			zap.Time("sleep_end", session.Summary.SleepEnd),
		)
	case sleep.IsNoData(err):
		s.logger.Debug("No sleep session to reconstruct")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("Failed to reconstruct sleep session", zap.Error(err))
	}
}

// Stop releases the publisher.
func (s *SleepService) Stop() {
	s.stopOnce.Do(func() {
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn("Failed to close publisher", zap.Error(err))
		}
		s.logger.Info("Sleep service stopped")
	})
}
