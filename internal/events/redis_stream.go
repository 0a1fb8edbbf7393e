package events

import (
	"context"
	"fmt"

	"healthcore/common/redis"

	"go.uber.org/zap"
)

// DefaultStreamMaxLen approximate cap of the session event stream
const DefaultStreamMaxLen = 10000

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

func NewRedisStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: DefaultStreamMaxLen,
		logger: logger,
	}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event SessionEvent) error {
	id, err := redis.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, event.Type, event)
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	p.logger.Debug("Published session event",
		zap.String("stream", p.stream),
		zap.String("id", id),
		zap.String("type", event.Type),
	)
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisStreamPublisher) Close() error { return nil }
