// Package kafka wraps segmentio/kafka-go for the ask-events stream: the
// server publishes one JSON event per answered question and ragctl tails
// the topic to summarise traffic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/config"
)

// MessageHandler processes one message. A returned error leaves the
// message uncommitted.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// ConsumerOption customises a Consumer.
type ConsumerOption func(*kafka.ReaderConfig)

// FromBeginning starts at the oldest retained offset instead of the newest
// when the group has no committed offset.
func FromBeginning() ConsumerOption {
	return func(rc *kafka.ReaderConfig) { rc.StartOffset = kafka.FirstOffset }
}

// WithGroup overrides cfg.ConsumerGroup. An empty group reads every
// partition without committing offsets.
func WithGroup(group string) ConsumerOption {
	return func(rc *kafka.ReaderConfig) { rc.GroupID = group }
}

// Consumer feeds messages from one topic to a MessageHandler.
type Consumer struct {
	reader  *kafka.Reader
	grouped bool
	handler MessageHandler
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for topic. Without options it joins
// cfg.ConsumerGroup and starts from the newest offset.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler, opts ...ConsumerOption) *Consumer {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		StartOffset: kafka.LastOffset,
	}
	for _, opt := range opts {
		opt(&rc)
	}
	return &Consumer{
		reader:  kafka.NewReader(rc),
		grouped: rc.GroupID != "",
		handler: handler,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", rc.GroupID),
	}
}

// Start runs the consume loop until ctx is cancelled, then closes the
// reader. Cancellation is not reported as an error.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopped")
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Warn("handler failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		if !c.grouped {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

// Close releases the reader. It is safe to call after Start has returned.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var out T
	if err := json.Unmarshal(value, &out); err != nil {
		return out, fmt.Errorf("decoding message: %w", err)
	}
	return out, nil
}
