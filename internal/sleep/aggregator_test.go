package sleep

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthcore/internal/healthstore"
	"healthcore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ownBundle = "com.acme.sleep"

// episode adds coincident asleep and in-bed samples over [start, end]
func episode(store *healthstore.MemoryStore, start, end time.Time) {
	store.Seed(
		span(models.SampleTypeAsleep, start, end),
		span(models.SampleTypeInBed, start, end),
	)
}

func newAuthorizedStore(t *testing.T) *healthstore.MemoryStore {
	t.Helper()
	store := healthstore.NewMemoryStore()
	require.NoError(t, store.Authorize(context.Background(), models.AllSampleTypes,
		[]models.SampleType{models.SampleTypeAsleep, models.SampleTypeInBed}))
	return store
}

func newTestAggregator(store healthstore.Store, now time.Time, withReconciler bool) *Aggregator {
	var rec EpisodeReconciler
	if withReconciler {
		rec = NewReconciler(store, ownBundle, zap.NewNop())
	}
	return NewAggregator(store, rec, zap.NewNop(), WithClock(func() time.Time { return now }))
}

func TestReconstruct_EndToEndNight(t *testing.T) {
	store := newAuthorizedStore(t)
	store.Seed(
		span(models.SampleTypeAsleep, at(23, 0), at(23, 30)),
		span(models.SampleTypeAsleep, at(23, 31), at(30, 0)),
		span(models.SampleTypeInBed, at(22, 45), at(30, 5)),
		quantity(models.SampleTypeHeartRate, at(26, 0), 54),
		quantity(models.SampleTypeHeartRate, at(27, 0), 58),
	)

	sleep, err := newTestAggregator(store, at(31, 0), true).Reconstruct(context.Background(), "com.watch")

	require.NoError(t, err)
	require.Len(t, sleep.Samples, 1)
	ms := sleep.Samples[0]
	assert.Equal(t, models.DateInterval{Start: at(23, 0), End: at(30, 0)}, ms.SleepInterval)
	assert.Equal(t, models.DateInterval{Start: at(22, 45), End: at(30, 5)}, ms.InBedInterval)
	assert.Len(t, ms.Heart, 2)

	written, err := store.Query(context.Background(), healthstore.Query{
		Type:     models.SampleTypeAsleep,
		Interval: models.NewDateInterval(at(22, 0), at(31, 0)),
		Source:   healthstore.SourceFilter{BundlePrefix: ownBundle},
	})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, "56.000", written[0].Metadata[MetadataHeartRateMean])
}

func TestReconstruct_ContinuityStopsAtDistantEpisode(t *testing.T) {
	store := newAuthorizedStore(t)
	episode(store, at(29, 0), at(31, 30))  // E1
	episode(store, at(27, 40), at(28, 30)) // E2, ends 30m before E1 starts
	episode(store, at(26, 0), at(27, 10))  // E3, ends 30m before E2 starts
	episode(store, at(24, 0), at(25, 0))   // E4, ends 60m before E3 starts

	sleep, err := newTestAggregator(store, at(32, 0), true).Reconstruct(context.Background(), "com.watch")

	require.NoError(t, err)
	require.Len(t, sleep.Samples, 3)
	// oldest first
	assert.Equal(t, at(26, 0), sleep.Samples[0].SleepInterval.Start)
	assert.Equal(t, at(27, 40), sleep.Samples[1].SleepInterval.Start)
	assert.Equal(t, at(29, 0), sleep.Samples[2].SleepInterval.Start)
	assert.Equal(t, models.DateInterval{Start: at(26, 0), End: at(31, 30)}, sleep.SleepInterval())

	// 8 seeded + 3 episodes written back
	assert.Equal(t, 8+6, store.Len())
}

func TestReconstruct_BoundaryGapAndMinimumInBed(t *testing.T) {
	store := newAuthorizedStore(t)
	episode(store, at(29, 0), at(31, 0))   // E1
	episode(store, at(27, 45), at(28, 15)) // E2, exactly 30m, ends exactly 45m before E1 starts
	episode(store, at(26, 0), at(27, 0))   // E3, ends exactly 45m before E2 starts
	episode(store, at(24, 0), at(25, 14))  // E4, ends 46m before E3 starts

	sleep, err := newTestAggregator(store, at(31, 30), false).Reconstruct(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, sleep.Samples, 3)
	assert.Equal(t, at(26, 0), sleep.Samples[0].SleepInterval.Start)
	assert.Equal(t, models.DateInterval{Start: at(27, 45), End: at(28, 15)}, sleep.Samples[1].InBedInterval)
	assert.Equal(t, MinInBedDuration, sleep.Samples[1].InBedInterval.Duration())
	assert.Equal(t, at(29, 0), sleep.Samples[2].SleepInterval.Start)
}

func TestReconstruct_DiscardsShortEpisodeButKeepsWalking(t *testing.T) {
	store := newAuthorizedStore(t)
	episode(store, at(29, 0), at(31, 0))
	episode(store, at(28, 20), at(28, 40)) // 20 minutes, noise
	episode(store, at(27, 0), at(28, 0))

	sleep, err := newTestAggregator(store, at(31, 30), false).Reconstruct(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, sleep.Samples, 2)
	assert.Equal(t, at(27, 0), sleep.Samples[0].SleepInterval.Start)
	assert.Equal(t, at(29, 0), sleep.Samples[1].SleepInterval.Start)
}

func TestReconstruct_FirstEpisodeAcceptedRegardlessOfDistance(t *testing.T) {
	store := newAuthorizedStore(t)
	episode(store, at(22, 0), at(30, 0))

	sleep, err := newTestAggregator(store, at(40, 0), false).Reconstruct(context.Background(), "")

	require.NoError(t, err)
	assert.Len(t, sleep.Samples, 1)
}

func TestReconstruct_NotEnoughRawData(t *testing.T) {
	t.Run("missing in-bed", func(t *testing.T) {
		store := newAuthorizedStore(t)
		store.Seed(span(models.SampleTypeAsleep, at(23, 0), at(30, 0)))

		_, err := newTestAggregator(store, at(31, 0), false).Reconstruct(context.Background(), "")
		assert.ErrorIs(t, err, ErrNotEnoughRawData)
	})

	t.Run("only short episodes", func(t *testing.T) {
		store := newAuthorizedStore(t)
		episode(store, at(29, 0), at(29, 20))

		_, err := newTestAggregator(store, at(31, 0), false).Reconstruct(context.Background(), "")
		assert.ErrorIs(t, err, ErrNotEnoughRawData)
		assert.True(t, IsNoData(err))
	})

	t.Run("outside fetch window", func(t *testing.T) {
		store := newAuthorizedStore(t)
		episode(store, at(23, 0), at(30, 0))

		_, err := newTestAggregator(store, at(30, 0).Add(FetchWindow+time.Hour), false).
			Reconstruct(context.Background(), "")
		assert.ErrorIs(t, err, ErrNotEnoughRawData)
	})

	t.Run("bundle filter excludes everything", func(t *testing.T) {
		store := newAuthorizedStore(t)
		episode(store, at(23, 0), at(30, 0))

		_, err := newTestAggregator(store, at(31, 0), false).Reconstruct(context.Background(), "com.other")
		assert.ErrorIs(t, err, ErrNotEnoughRawData)
	})
}

func TestReconstruct_ZeroLengthEpisodeTerminates(t *testing.T) {
	store := newAuthorizedStore(t)
	episode(store, at(31, 0), at(31, 0))

	_, err := newTestAggregator(store, at(31, 0), false).Reconstruct(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotEnoughRawData)
}

type failingStore struct {
	*healthstore.MemoryStore
	failType models.SampleType
	err      error
}

func (f *failingStore) Query(ctx context.Context, q healthstore.Query) ([]models.Sample, error) {
	if q.Type == f.failType {
		return nil, f.err
	}
	return f.MemoryStore.Query(ctx, q)
}

func TestReconstruct_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("store offline")
	store := &failingStore{MemoryStore: newAuthorizedStore(t), failType: models.SampleTypeHeartRate, err: boom}
	episode(store.MemoryStore, at(23, 0), at(30, 0))

	_, err := newTestAggregator(store, at(31, 0), false).Reconstruct(context.Background(), "")

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotEnoughRawData)
}

func TestReconstruct_ReconcileErrorAborts(t *testing.T) {
	// no write authorization
	store := healthstore.NewMemoryStore()
	episode(store, at(23, 0), at(30, 0))

	sleep, err := newTestAggregator(store, at(31, 0), true).Reconstruct(context.Background(), "")

	assert.Nil(t, sleep)
	assert.ErrorIs(t, err, healthstore.ErrAuthorizationDenied)
}

type blockingStore struct {
	*healthstore.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Query(ctx context.Context, q healthstore.Query) ([]models.Sample, error) {
	if q.Type == models.SampleTypeAsleep {
		select {
		case b.entered <- struct{}{}:
		default:
		}
		<-b.release
	}
	return b.MemoryStore.Query(ctx, q)
}

func TestReconstruct_SingleSessionAtATime(t *testing.T) {
	store := &blockingStore{
		MemoryStore: newAuthorizedStore(t),
		entered:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	episode(store.MemoryStore, at(23, 0), at(30, 0))
	agg := newTestAggregator(store, at(31, 0), false)

	done := make(chan error, 1)
	go func() {
		_, err := agg.Reconstruct(context.Background(), "")
		done <- err
	}()
	<-store.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := agg.Reconstruct(ctx, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(store.release)
	require.NoError(t, <-done)

	// permit released after the first session
	sleep, err := agg.Reconstruct(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, sleep.Samples, 1)
}

func TestReconstruct_CancelledContext(t *testing.T) {
	store := newAuthorizedStore(t)
	episode(store, at(23, 0), at(30, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAggregator(store, at(31, 0), false).Reconstruct(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
