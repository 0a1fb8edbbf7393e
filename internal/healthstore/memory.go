package healthstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"healthcore/internal/models"

	"github.com/google/uuid"
)

// MemoryStore in-process store used by the CLI and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	samples []models.Sample
	auth    *authTracker
	catalog Catalog
}

// NewMemoryStore creates an empty store with the default catalog.
func NewMemoryStore() *MemoryStore {
	c := DefaultCatalog()
	return &MemoryStore{
		auth:    newAuthTracker(c),
		catalog: c,
	}
}

var _ Store = (*MemoryStore)(nil)

// Seed loads samples bypassing authorization, as if another app had written them.
func (m *MemoryStore) Seed(samples ...models.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range samples {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		m.samples = append(m.samples, s)
	}
}

// Len number of stored samples.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.samples)
}

func (m *MemoryStore) Authorize(_ context.Context, read, write []models.SampleType) error {
	return m.auth.grant(read, write)
}

func (m *MemoryStore) AuthorizationStatus(t models.SampleType) AuthorizationStatus {
	return m.auth.get(t)
}

func (m *MemoryStore) Capabilities() Catalog {
	return m.catalog.Clone()
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]models.Sample, error) {
	if err := validateQuery(m.catalog, q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]models.Sample, 0)
	for _, s := range m.samples {
		if s.Type != q.Type || !s.Interval().Intersects(q.Interval) {
			continue
		}
		if q.Source.BundlePrefix != "" && !strings.HasPrefix(s.SourceBundle, q.Source.BundlePrefix) {
			continue
		}
		out = append(out, s)
	}
	m.mu.RUnlock()

	sortSamples(out, q.Sort)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Write(ctx context.Context, samples []models.Sample) error {
	if err := m.auth.checkWrite(samples); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Seed(samples...)
	return nil
}

func sortSamples(samples []models.Sample, order SortOrder) {
	switch order {
	case SortStartAscending:
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Start.Before(samples[j].Start)
		})
	default:
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].End.After(samples[j].End)
		})
	}
}
