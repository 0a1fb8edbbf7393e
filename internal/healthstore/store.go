// Package healthstore is the boundary to the external health-data store.
// The sleep core only sees the Store interface; adapters live next to it.
package healthstore

import (
	"context"
	"errors"
	"fmt"

	"healthcore/internal/models"
)

var (
	// ErrAuthorizationDenied the store refused access to a sample type
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrUnsupportedType the adapter's catalog does not allow the operation for the type
	ErrUnsupportedType = errors.New("unsupported sample type")
)

// AuthorizationStatus write-authorization state of a sample type
type AuthorizationStatus string

const (
	StatusUndetermined AuthorizationStatus = "undetermined"
	StatusAuthorized   AuthorizationStatus = "authorized"
	StatusDenied       AuthorizationStatus = "denied"
)

// SortOrder result ordering of a Query
type SortOrder int

const (
	// SortEndDescending newest end first (zero value)
	SortEndDescending SortOrder = iota
	// SortStartAscending oldest start first
	SortStartAscending
)

// SourceFilter restricts results to samples written by matching bundles.
type SourceFilter struct {
	// BundlePrefix matches SourceBundle by prefix; empty matches everything
	BundlePrefix string
}

// Query selects samples of one type intersecting Interval.
type Query struct {
	Type     models.SampleType
	Interval models.DateInterval
	Sort     SortOrder
	Limit    int // 0 = unlimited
	Source   SourceFilter
}

// Store the four operations the core depends on, plus the adapter's capability table.
type Store interface {
	// Authorize requests read access to read and write access to write.
	Authorize(ctx context.Context, read, write []models.SampleType) error
	// AuthorizationStatus probes the current write authorization without blocking.
	AuthorizationStatus(t models.SampleType) AuthorizationStatus
	// Query returns matching samples.
	Query(ctx context.Context, q Query) ([]models.Sample, error)
	// Write appends samples.
	Write(ctx context.Context, samples []models.Sample) error
	// Capabilities the adapter's type table.
	Capabilities() Catalog
}

func validateQuery(c Catalog, q Query) error {
	if !c.CanRead(q.Type) {
		return fmt.Errorf("%w: %s is not readable", ErrUnsupportedType, q.Type)
	}
	if q.Interval.End.Before(q.Interval.Start) {
		return fmt.Errorf("invalid query interval: end %s before start %s", q.Interval.End, q.Interval.Start)
	}
	if q.Limit < 0 {
		return fmt.Errorf("invalid query limit %d", q.Limit)
	}
	return nil
}
