// Package consumer turns MQTT trigger messages into session reconstructions.
package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthcore/common/mqtt"
	"healthcore/internal/service"
	"healthcore/internal/sleep"

	"go.uber.org/zap"
)

// DefaultReconstructTimeout bound of one triggered reconstruction
const DefaultReconstructTimeout = 2 * time.Minute

// Trigger one reconstruction request
type Trigger struct {
	BundlePrefix string `json:"bundle_prefix"`
	RequestedAt  int64  `json:"requested_at"` // unix seconds, optional
}

// Subscriber the part of the MQTT client the consumer uses
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Reconstructor runs one reconstruction.
type Reconstructor interface {
	Reconstruct(ctx context.Context, bundlePrefix string) (*service.Session, error)
}

// TriggerConsumer MQTT trigger consumer
type TriggerConsumer struct {
	subscriber Subscriber
	svc        Reconstructor
	topic      string
	qos        byte
	timeout    time.Duration
	logger     *zap.Logger

	mu  sync.RWMutex
	ctx context.Context
}

func NewTriggerConsumer(subscriber Subscriber, svc Reconstructor, topic string, qos byte, logger *zap.Logger) *TriggerConsumer {
	return &TriggerConsumer{
		subscriber: subscriber,
		svc:        svc,
		topic:      topic,
		qos:        qos,
		timeout:    DefaultReconstructTimeout,
		logger:     logger,
		ctx:        context.Background(),
	}
}

// Start subscribes and blocks until ctx is done.
func (c *TriggerConsumer) Start(ctx context.Context) error {
	if c.topic == "" {
		return fmt.Errorf("trigger MQTT topic not configured")
	}

	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	if err := c.subscriber.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to trigger topic: %w", err)
	}
	c.logger.Info("Trigger consumer started", zap.String("topic", c.topic))

	<-ctx.Done()
	return nil
}

// Stop unsubscribes from the trigger topic.
func (c *TriggerConsumer) Stop() error {
	if err := c.subscriber.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
		return err
	}
	c.logger.Info("Trigger consumer stopped")
	return nil
}

// handleMessage accepts one trigger object or an array of them.
func (c *TriggerConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received trigger message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	triggers, err := parseTriggers(payload)
	if err != nil {
		c.logger.Error("Failed to unmarshal trigger message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	c.mu.RLock()
	base := c.ctx
	c.mu.RUnlock()

	var failed int
	for _, trigger := range triggers {
		if err := c.process(base, trigger); err != nil {
			failed++
			c.logger.Error("Failed to process trigger",
				zap.String("bundle_prefix", trigger.BundlePrefix),
				zap.Error(err),
			)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d triggers failed", failed, len(triggers))
	}
	return nil
}

func (c *TriggerConsumer) process(base context.Context, trigger Trigger) error {
	ctx, cancel := context.WithTimeout(base, c.timeout)
	defer cancel()

	session, err := c.svc.Reconstruct(ctx, trigger.BundlePrefix)
	if err != nil {
		if sleep.IsNoData(err) {
			c.logger.Info("Triggered reconstruction found no session",
				zap.String("bundle_prefix", trigger.BundlePrefix),
			)
			return nil
		}
		return err
	}

	fields := []zap.Field{
		zap.String("bundle_prefix", trigger.BundlePrefix),
		zap.Int("segments", session.Summary.SegmentCount),
	}
	if trigger.RequestedAt > 0 {
		fields = append(fields, zap.Duration("latency", time.Since(time.Unix(trigger.RequestedAt, 0))))
	}
	c.logger.Info("Triggered reconstruction finished", fields...)
	return nil
}

func parseTriggers(payload []byte) ([]Trigger, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	if trimmed[0] == '[' {
		var triggers []Trigger
		if err := json.Unmarshal(trimmed, &triggers); err != nil {
			return nil, err
		}
		return triggers, nil
	}

	var trigger Trigger
	if err := json.Unmarshal(trimmed, &trigger); err != nil {
		return nil, err
	}
	return []Trigger{trigger}, nil
}
