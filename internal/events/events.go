// Package events publishes session lifecycle events to a message bus.
package events

import (
	"context"
	"time"

	"healthcore/internal/models"
)

// Event types
const (
	TypeSessionReconstructed = "sleep.session.reconstructed"
	TypeSessionEmpty         = "sleep.session.empty"
)

// SessionEvent payload of a published event
type SessionEvent struct {
	Type       string                 `json:"type"`
	Bundle     string                 `json:"bundle_prefix"`
	Summary    *models.SessionSummary `json:"summary,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher sends session events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event SessionEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, SessionEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
