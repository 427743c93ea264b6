// Package kafka carries submitted comments between the API and the ingest
// workers over segmentio/kafka-go. Payloads are JSON; the consumer hands
// each one to a MessageHandler with retries.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// ErrPermanent marks a handler failure that retrying cannot fix (a payload
// that does not decode, for example). Such messages are logged and committed.
var ErrPermanent = errors.New("permanent message failure")

// Consumer reads messages from a Kafka topic and dispatches them to a
// MessageHandler. Transient handler failures are retried with backoff before
// the message is given up on.
type Consumer struct {
	reader  *kafka.Reader
	brokers []string
	logger  *slog.Logger
	handler MessageHandler
	retry   resilience.RetryConfig
}

// NewConsumer creates a Consumer for the given topic and handler.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:  r,
		brokers: cfg.Brokers,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 5},
	}
}

// Start fetches and handles messages until ctx is cancelled. A message is
// committed once its handler succeeds or fails permanently. A transient
// failure that outlives the retries stops the consumer with an error rather
// than committing past the message, so a restart redelivers it.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
		if err := c.process(ctx, log, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("handling partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error("failed to commit message", "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, log *slog.Logger, msg kafka.Message) error {
	if id := header(msg, requestIDHeader); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	log.Debug("message received", "key", string(msg.Key), "value_size", len(msg.Value))

	var permanent error
	err := resilience.Retry(ctx, "kafka-handle", c.retry, func() error {
		err := c.handler(ctx, msg.Key, msg.Value)
		if errors.Is(err, ErrPermanent) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		log.Warn("dropping unprocessable message", "error", permanent)
	}
	return err
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Ping reports whether the consumer's brokers are reachable.
func (c *Consumer) Ping(ctx context.Context) error {
	return Ping(ctx, c.brokers)
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
// Decode failures are permanent.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("%w: decoding kafka message: %v", ErrPermanent, err)
	}
	return result, nil
}
