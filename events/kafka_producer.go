package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return NewKafkaProducerWithWriter(w, logger)
}

func NewKafkaProducerWithWriter(w MessageWriter, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{writer: w, logger: logger}
}

// Publish keys messages by entity id so all events for one entity land on
// the same partition in order.
func (p *KafkaProducer) Publish(ctx context.Context, event models.ModerationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.EntityID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("Failed to write Kafka message",
			zap.String("event_type", event.EventType),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
