package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"healthcore/internal/models"

	"go.uber.org/zap"
)

// DefaultSummaryTTL how long a latest-session summary stays cached
const DefaultSummaryTTL = 12 * time.Hour

// SessionCache stores the latest SessionSummary per bundle prefix.
type SessionCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionCache creates the cache; a non-positive ttl uses DefaultSummaryTTL.
func NewSessionCache(kv KVStore, ttl time.Duration, logger *zap.Logger) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SessionCache{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// SummaryKey cache key of the latest summary for bundlePrefix.
func SummaryKey(bundlePrefix string) string {
	if bundlePrefix == "" {
		bundlePrefix = "*"
	}
	return fmt.Sprintf("sleep:session:%s:latest", bundlePrefix)
}

// PutSummary overwrites the latest summary for its bundle prefix.
func (c *SessionCache) PutSummary(ctx context.Context, summary models.SessionSummary) error {
	key := SummaryKey(summary.BundlePrefix)

	jsonData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal session summary: %w", err)
	}
	if err := c.kv.Set(ctx, key, string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Updated session summary cache",
		zap.String("key", key),
		zap.Int("segments", summary.SegmentCount),
	)
	return nil
}

// GetSummary returns the cached summary; ErrCacheMiss when absent.
func (c *SessionCache) GetSummary(ctx context.Context, bundlePrefix string) (*models.SessionSummary, error) {
	raw, err := c.kv.Get(ctx, SummaryKey(bundlePrefix))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var summary models.SessionSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session summary: %w", err)
	}
	return &summary, nil
}

// Invalidate drops the cached summary for bundlePrefix.
func (c *SessionCache) Invalidate(ctx context.Context, bundlePrefix string) error {
	if err := c.kv.Del(ctx, SummaryKey(bundlePrefix)); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}
