package export

import (
	"bytes"
	"testing"
	"time"

	"healthcore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSessionWorkbook(t *testing.T) {
	start := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	hr := func(offset time.Duration, v float64) models.Sample {
		return models.Sample{Type: models.SampleTypeHeartRate, Start: start.Add(offset), End: start.Add(offset), Value: v}
	}
	s := &models.Sleep{Samples: []models.MicroSleep{
		{
			SleepInterval: models.DateInterval{Start: start, End: start.Add(3 * time.Hour)},
			InBedInterval: models.DateInterval{Start: start.Add(-15 * time.Minute), End: start.Add(3 * time.Hour)},
			Heart:         []models.Sample{hr(time.Hour, 58), hr(time.Hour+4*time.Second, 62)},
		},
		{
			SleepInterval: models.DateInterval{Start: start.Add(3*time.Hour + 20*time.Minute), End: start.Add(7 * time.Hour)},
			InBedInterval: models.DateInterval{Start: start.Add(3*time.Hour + 20*time.Minute), End: start.Add(7 * time.Hour)},
		},
	}}

	data, err := SessionWorkbook(s)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SegmentsSheet, HeartRateSheet}, f.GetSheetList())

	rows, err := f.GetRows(SegmentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, SegmentsHeader, rows[0])
	assert.Equal(t, "2024-03-01 23:00:00", rows[1][1])
	assert.Equal(t, "180", rows[1][5])
	assert.Equal(t, "195", rows[1][6])
	assert.Equal(t, "60", rows[1][7])
	// no heart samples in the second segment
	assert.Len(t, rows[2], 7)

	hrRows, err := f.GetRows(HeartRateSheet)
	require.NoError(t, err)
	// short series are written as-is
	require.Len(t, hrRows, 1+2)
	assert.Equal(t, "2024-03-02 00:00:00", hrRows[1][0])
	assert.Equal(t, "62", hrRows[2][1])
}

func TestSessionWorkbook_Empty(t *testing.T) {
	data, err := SessionWorkbook(&models.Sleep{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SegmentsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
