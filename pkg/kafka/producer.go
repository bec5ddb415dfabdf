package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/config"
)

const contentTypeJSON = "application/json"

// Event is one record destined for a topic. Events with the same Key land
// on the same partition; Value is encoded as JSON.
type Event struct {
	Key   string
	Value any
}

// Producer writes events to a single topic. Writes are synchronous; callers
// on a request path publish from their own goroutine.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

// NewProducer creates a Producer for topic on cfg.Brokers.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	batch := cfg.BufferSize
	if batch <= 0 || batch > 100 {
		batch = 100
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    batch,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
		},
		topic:  topic,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes one event and waits for the broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch writes events in a single call. Nothing is written if any
// event fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := encodeMessage(event, time.Now())
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Warn("write failed", "count", len(msgs), "error", err)
		return fmt.Errorf("writing %d message(s) to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("messages written", "count", len(msgs))
	return nil
}

// Close flushes buffered messages and releases broker connections.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeMessage(event Event, now time.Time) (kafka.Message, error) {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding %q event: %w", event.Key, err)
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(contentTypeJSON)},
		},
	}, nil
}
