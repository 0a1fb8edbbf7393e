package sleep

import (
	"context"
	"fmt"
	"math"
	"time"

	"healthcore/internal/healthstore"
	"healthcore/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileSlack widening of the in-bed interval when searching for an earlier write.
const ReconcileSlack = 5 * time.Minute

// Metadata keys attached to written asleep samples.
const (
	MetadataHeartRateMean       = "heart_rate_mean"
	MetadataEnergyTotal         = "energy_total"
	MetadataRespiratoryRateMean = "respiratory_rate_mean"
)

// Reconciler writes accepted episodes back to the store at most once.
type Reconciler struct {
	store    healthstore.Store
	bundleID string
	logger   *zap.Logger
}

// NewReconciler creates a reconciler writing as bundleID.
func NewReconciler(store healthstore.Store, bundleID string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		bundleID: bundleID,
		logger:   logger,
	}
}

// Reconcile writes ms unless an asleep sample of ours already lies near its in-bed interval.
// It reports whether anything was written.
func (r *Reconciler) Reconcile(ctx context.Context, ms *models.MicroSleep) (bool, error) {
	window := ms.InBedInterval.Expanded(ReconcileSlack)

	existing, err := r.store.Query(ctx, healthstore.Query{
		Type:     models.SampleTypeAsleep,
		Interval: window,
		Limit:    1,
		Source:   healthstore.SourceFilter{BundlePrefix: r.bundleID},
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up persisted episode: %w", err)
	}
	if len(existing) > 0 {
		r.logger.Debug("Episode already persisted",
			zap.Time("in_bed_start", ms.InBedInterval.Start),
			zap.Time("in_bed_end", ms.InBedInterval.End),
			zap.String("sample_id", existing[0].ID),
		)
		return false, nil
	}

	samples := []models.Sample{
		{
			ID:           uuid.NewString(),
			Type:         models.SampleTypeAsleep,
			Start:        ms.SleepInterval.Start,
			End:          ms.SleepInterval.End,
			SourceBundle: r.bundleID,
			Metadata:     EpisodeMetadata(ms),
		},
		{
			ID:           uuid.NewString(),
			Type:         models.SampleTypeInBed,
			Start:        ms.InBedInterval.Start,
			End:          ms.InBedInterval.End,
			SourceBundle: r.bundleID,
		},
	}
	if err := r.store.Write(ctx, samples); err != nil {
		return false, fmt.Errorf("failed to persist episode: %w", err)
	}

	r.logger.Info("Persisted sleep episode",
		zap.Time("sleep_start", ms.SleepInterval.Start),
		zap.Time("sleep_end", ms.SleepInterval.End),
		zap.Int("heart_samples", len(ms.Heart)),
	)
	return true, nil
}

// EpisodeMetadata summary values of ms with three decimals; an empty series yields "NaN".
func EpisodeMetadata(ms *models.MicroSleep) map[string]string {
	return map[string]string{
		MetadataHeartRateMean:       formatMetric(models.MeanValue(ms.Heart)),
		MetadataEnergyTotal:         formatMetric(energyTotal(ms.Energy)),
		MetadataRespiratoryRateMean: formatMetric(models.MeanValue(ms.Respiratory)),
	}
}

func energyTotal(samples []models.Sample) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	return models.SumValue(samples)
}

func formatMetric(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
