package healthstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"healthcore/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockPostgresStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := NewPostgresStore(db, zap.NewNop())
	return db, mock, store
}

var sampleColumns = []string{
	"sample_id", "sample_type", "start_time", "end_time", "value", "source_bundle", "metadata",
}

func TestPostgresStore_Query(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	start := base
	end := base.Add(8 * time.Hour)

	rows := sqlmock.NewRows(sampleColumns).
		AddRow("11111111-1111-1111-1111-111111111111", "asleep", base.Add(time.Hour), base.Add(2*time.Hour), 0.0,
			"com.acme.sleep", `{"heart_rate_mean":"58.000"}`).
		AddRow("22222222-2222-2222-2222-222222222222", "asleep", base, base.Add(time.Hour), 0.0,
			"com.acme.sleep", "")

	mock.ExpectQuery(`SELECT .+ FROM health_samples WHERE sample_type = \$1 .+ source_bundle LIKE \$4 .+ ORDER BY end_time DESC LIMIT \$5`).
		WithArgs("asleep", start, end, "com.acme%", 10).
		WillReturnRows(rows)

	got, err := store.Query(context.Background(), Query{
		Type:     models.SampleTypeAsleep,
		Interval: models.NewDateInterval(start, end),
		Limit:    10,
		Source:   SourceFilter{BundlePrefix: "com.acme"},
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.SampleTypeAsleep, got[0].Type)
	assert.Equal(t, "58.000", got[0].Metadata["heart_rate_mean"])
	assert.Nil(t, got[1].Metadata)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryStartAscending(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER BY start_time ASC`).
		WithArgs("heartRate", base, base.Add(time.Hour)).
		WillReturnRows(sqlmock.NewRows(sampleColumns))

	got, err := store.Query(context.Background(), Query{
		Type:     models.SampleTypeHeartRate,
		Interval: models.NewDateInterval(base, base.Add(time.Hour)),
		Sort:     SortStartAscending,
	})

	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryError(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	_, err := store.Query(context.Background(), Query{
		Type:     models.SampleTypeInBed,
		Interval: models.NewDateInterval(base, base.Add(time.Hour)),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Write(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, store.Authorize(ctx, nil, []models.SampleType{models.SampleTypeAsleep, models.SampleTypeInBed}))

	s := models.Sample{
		Type:         models.SampleTypeAsleep,
		Start:        base,
		End:          base.Add(7 * time.Hour),
		SourceBundle: "com.acme.sleep",
		Metadata:     map[string]string{"energy_total": "120.000"},
	}
	inBed := models.Sample{
		Type:         models.SampleTypeInBed,
		Start:        base,
		End:          base.Add(8 * time.Hour),
		SourceBundle: "com.acme.sleep",
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO health_samples`).
		WithArgs(sqlmock.AnyArg(), "asleep", s.Start, s.End, 0.0, "com.acme.sleep", `{"energy_total":"120.000"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO health_samples`).
		WithArgs(sqlmock.AnyArg(), "inBed", inBed.Start, inBed.End, 0.0, "com.acme.sleep", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Write(ctx, []models.Sample{s, inBed}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteRollsBackOnError(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, store.Authorize(ctx, nil, []models.SampleType{models.SampleTypeAsleep}))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO health_samples`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Write(ctx, []models.Sample{{
		Type: models.SampleTypeAsleep, Start: base, End: base.Add(time.Hour), SourceBundle: "com.acme.sleep",
	}})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteUnauthorized(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	err := store.Write(context.Background(), []models.Sample{{
		Type: models.SampleTypeAsleep, Start: base, End: base.Add(time.Hour),
	}})
	assert.True(t, errors.Is(err, ErrAuthorizationDenied))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db, mock, store := setupMockPostgresStore(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS health_samples`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
