package healthstore

import (
	"fmt"
	"sync"

	"healthcore/internal/models"
)

// authTracker keeps per-type write authorization for adapters that grant locally.
type authTracker struct {
	mu      sync.RWMutex
	catalog Catalog
	status  map[models.SampleType]AuthorizationStatus
}

func newAuthTracker(c Catalog) *authTracker {
	return &authTracker{
		catalog: c,
		status:  make(map[models.SampleType]AuthorizationStatus),
	}
}

// grant authorizes what the catalog allows and denies the rest.
func (a *authTracker) grant(read, write []models.SampleType) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var denied []models.SampleType
	for _, t := range read {
		if !a.catalog.CanRead(t) {
			denied = append(denied, t)
		}
	}
	for _, t := range write {
		if a.catalog.CanWrite(t) {
			a.status[t] = StatusAuthorized
		} else {
			a.status[t] = StatusDenied
			denied = append(denied, t)
		}
	}
	if len(denied) > 0 {
		return fmt.Errorf("%w: %v", ErrAuthorizationDenied, denied)
	}
	return nil
}

// set records statuses reported by a remote store.
func (a *authTracker) set(statuses map[models.SampleType]AuthorizationStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for t, s := range statuses {
		a.status[t] = s
	}
}

func (a *authTracker) get(t models.SampleType) AuthorizationStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s, ok := a.status[t]; ok {
		return s
	}
	return StatusUndetermined
}

// checkWrite fails unless every sample's type is writable and authorized.
func (a *authTracker) checkWrite(samples []models.Sample) error {
	for _, s := range samples {
		if !a.catalog.CanWrite(s.Type) {
			return fmt.Errorf("%w: %s is not writable", ErrUnsupportedType, s.Type)
		}
		if st := a.get(s.Type); st != StatusAuthorized {
			return fmt.Errorf("%w: write %s (%s)", ErrAuthorizationDenied, s.Type, st)
		}
		if s.End.Before(s.Start) {
			return fmt.Errorf("invalid sample %s: end before start", s.Type)
		}
	}
	return nil
}
