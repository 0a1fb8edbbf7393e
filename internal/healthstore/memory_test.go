package healthstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthcore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)

func sample(t models.SampleType, startMin, endMin int, bundle string) models.Sample {
	return models.Sample{
		Type:         t,
		Start:        base.Add(time.Duration(startMin) * time.Minute),
		End:          base.Add(time.Duration(endMin) * time.Minute),
		SourceBundle: bundle,
	}
}

func TestMemoryStore_QueryIntersectsAndSorts(t *testing.T) {
	store := NewMemoryStore()
	store.Seed(
		sample(models.SampleTypeAsleep, 0, 10, "com.watch"),
		sample(models.SampleTypeAsleep, 20, 30, "com.watch"),
		sample(models.SampleTypeAsleep, 40, 50, "com.watch"),
		sample(models.SampleTypeInBed, 0, 60, "com.watch"),
	)

	got, err := store.Query(context.Background(), Query{
		Type:     models.SampleTypeAsleep,
		Interval: models.NewDateInterval(base.Add(10*time.Minute), base.Add(45*time.Minute)),
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	// end descending by default
	assert.Equal(t, base.Add(50*time.Minute), got[0].End)
	assert.Equal(t, base.Add(10*time.Minute), got[2].End)
	for _, s := range got {
		assert.NotEmpty(t, s.ID)
	}

	got, err = store.Query(context.Background(), Query{
		Type:     models.SampleTypeAsleep,
		Interval: models.NewDateInterval(base, base.Add(time.Hour)),
		Sort:     SortStartAscending,
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base, got[0].Start)
	assert.Equal(t, base.Add(20*time.Minute), got[1].Start)
}

func TestMemoryStore_QueryBundlePrefix(t *testing.T) {
	store := NewMemoryStore()
	store.Seed(
		sample(models.SampleTypeAsleep, 0, 10, "com.acme.sleep"),
		sample(models.SampleTypeAsleep, 0, 10, "com.acme.sleep.widget"),
		sample(models.SampleTypeAsleep, 0, 10, "com.watch"),
	)

	got, err := store.Query(context.Background(), Query{
		Type:     models.SampleTypeAsleep,
		Interval: models.NewDateInterval(base, base.Add(time.Hour)),
		Source:   SourceFilter{BundlePrefix: "com.acme.sleep"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStore_QueryRejectsInvalid(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Query(context.Background(), Query{Type: "steps"})
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = store.Query(context.Background(), Query{
		Type:     models.SampleTypeAsleep,
		Interval: models.DateInterval{Start: base, End: base.Add(-time.Minute)},
	})
	assert.Error(t, err)
}

func TestMemoryStore_WriteRequiresAuthorization(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := sample(models.SampleTypeAsleep, 0, 10, "com.acme.sleep")

	assert.Equal(t, StatusUndetermined, store.AuthorizationStatus(models.SampleTypeAsleep))
	err := store.Write(ctx, []models.Sample{s})
	assert.True(t, errors.Is(err, ErrAuthorizationDenied))
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Authorize(ctx, models.AllSampleTypes, []models.SampleType{
		models.SampleTypeAsleep, models.SampleTypeInBed,
	}))
	assert.Equal(t, StatusAuthorized, store.AuthorizationStatus(models.SampleTypeAsleep))
	require.NoError(t, store.Write(ctx, []models.Sample{s}))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_AuthorizeDeniesQuantityWrites(t *testing.T) {
	store := NewMemoryStore()
	err := store.Authorize(context.Background(), nil, []models.SampleType{models.SampleTypeHeartRate})
	assert.True(t, errors.Is(err, ErrAuthorizationDenied))
	assert.Equal(t, StatusDenied, store.AuthorizationStatus(models.SampleTypeHeartRate))

	err = store.Write(context.Background(), []models.Sample{sample(models.SampleTypeHeartRate, 0, 1, "x")})
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestCatalog_CloneIsIndependent(t *testing.T) {
	c := DefaultCatalog()
	clone := c.Clone()
	clone[models.SampleTypeHeartRate] = Capability{Writable: true}

	assert.False(t, c.CanWrite(models.SampleTypeHeartRate))
	assert.Equal(t, "kcal", c.Unit(models.SampleTypeActiveEnergy))
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, `com.acme%`, likePrefix("com.acme"))
	assert.Equal(t, `a\_b\%c\\%`, likePrefix(`a_b%c\`))
}
