// Package fixture reads sample sets from YAML files.
package fixture

import (
	"fmt"
	"io"
	"os"
	"sort"

	"healthcore/internal/models"

	"gopkg.in/yaml.v3"
)

// File layout of a fixture document
type File struct {
	Samples []models.Sample `yaml:"samples"`
}

// Load reads the fixture at path.
func Load(path string) ([]models.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	samples, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// Parse decodes and validates a fixture; samples come back sorted by start.
func Parse(r io.Reader) ([]models.Sample, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return []models.Sample{}, nil
		}
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}

	for i, s := range doc.Samples {
		if !s.Type.Valid() {
			return nil, fmt.Errorf("sample %d: missing type", i)
		}
		if s.Start.IsZero() {
			return nil, fmt.Errorf("sample %d: missing start", i)
		}
		if s.End.IsZero() {
			doc.Samples[i].End = s.Start
		} else if s.End.Before(s.Start) {
			return nil, fmt.Errorf("sample %d: end %s before start %s", i, s.End, s.Start)
		}
	}

	sort.SliceStable(doc.Samples, func(i, j int) bool {
		return doc.Samples[i].Start.Before(doc.Samples[j].Start)
	})
	return doc.Samples, nil
}
