package events

import (
	"context"
	"encoding/json"
	"fmt"

	"healthcore/common/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter the part of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by bundle prefix.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a synchronous writer for cfg.Topic.
func NewKafkaPublisher(cfg *config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Balancer:     &kafka.Hash{},
	}
	return newKafkaPublisher(w, cfg.Topic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event SessionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Bundle),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to topic %s: %w", p.topic, err)
	}
	p.logger.Debug("Published session event",
		zap.String("topic", p.topic),
		zap.String("type", event.Type),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
