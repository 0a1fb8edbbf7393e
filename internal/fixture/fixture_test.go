package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"healthcore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const night = `
samples:
  - type: inBed
    start: 2024-03-01T22:45:00Z
    end: 2024-03-02T06:05:00Z
    source: com.watch
  - type: asleep
    start: 2024-03-01T23:31:00Z
    end: 2024-03-02T06:00:00Z
    source: com.watch
  - type: asleep
    start: 2024-03-01T23:00:00Z
    end: 2024-03-01T23:30:00Z
    source: com.watch
  - type: heartRate
    start: 2024-03-02T01:00:00Z
    value: 54
    source: com.watch
    metadata:
      device: watch
`

func TestParse(t *testing.T) {
	samples, err := Parse(strings.NewReader(night))
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, models.SampleTypeInBed, samples[0].Type)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC), samples[1].Start)
	assert.Equal(t, "com.watch", samples[1].SourceBundle)

	hr := samples[3]
	assert.Equal(t, models.SampleTypeHeartRate, hr.Type)
	assert.Equal(t, 54.0, hr.Value)
	assert.Equal(t, hr.Start, hr.End)
	assert.Equal(t, "watch", hr.Metadata["device"])
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown type":  "samples:\n  - type: steps\n    start: 2024-03-01T22:45:00Z\n",
		"missing type":  "samples:\n  - start: 2024-03-01T22:45:00Z\n",
		"missing start": "samples:\n  - type: asleep\n",
		"reversed":      "samples:\n  - type: asleep\n    start: 2024-03-02T00:00:00Z\n    end: 2024-03-01T00:00:00Z\n",
		"unknown field": "samples:\n  - type: asleep\n    start: 2024-03-01T22:45:00Z\n    colour: red\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	samples, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "night.yaml")
	require.NoError(t, os.WriteFile(path, []byte(night), 0o600))

	samples, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, samples, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
