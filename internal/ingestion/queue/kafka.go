package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
)

// Publisher is the producing side of the topic.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Close() error
}

// Kafka publishes each comment keyed by its id, so redeliveries of the same
// comment land on one partition in order.
type Kafka struct {
	producer Publisher
	logger   *slog.Logger
}

// NewKafka creates a Kafka queue over producer.
func NewKafka(producer Publisher) *Kafka {
	return &Kafka{
		producer: producer,
		logger:   slog.Default().With("component", "kafka-queue"),
	}
}

// Submit returns once the broker acknowledged the message; the handle is
// already resolved at that point and carries no gram counts.
func (q *Kafka) Submit(ctx context.Context, raw ingestion.RawComment) (*Handle, error) {
	h := newHandle(raw.ID)
	if err := q.producer.Publish(ctx, kafka.Event{Key: raw.ID, Value: raw}); err != nil {
		return nil, fmt.Errorf("queueing comment %s: %w", raw.ID, err)
	}
	h.resolve(ingestion.InsertResult{CommentID: raw.ID, Source: raw.Source}, nil)
	q.logger.Debug("comment queued", "comment_id", raw.ID, "source", raw.Source, "task_id", h.TaskID)
	return h, nil
}

func (q *Kafka) Close() error {
	return q.producer.Close()
}

// Worker returns the ingest worker's MessageHandler. Payloads that do not
// decode or validate are permanent failures. A duplicate comment counts as
// processed, so redelivery after a crash between insert and commit is
// harmless.
func Worker(p Inserter, n *token.Normalizer) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		raw, err := kafka.DecodeJSON[ingestion.RawComment](value)
		if err != nil {
			return err
		}
		ctx = logger.With(ctx, "comment_id", raw.ID, "source", raw.Source)
		log := logger.FromContext(ctx).With("component", "ingest-worker")
		c, err := build(raw, n)
		if err != nil {
			return fmt.Errorf("%w: %v", kafka.ErrPermanent, err)
		}
		res, err := p.Insert(ctx, c)
		if errors.Is(err, apperrors.ErrDuplicateEvent) {
			log.Debug("skipping duplicate comment")
			return nil
		}
		if err != nil {
			return fmt.Errorf("inserting comment %s: %w", raw.ID, err)
		}
		log.Info("comment ingested", "grams", res.Grams, "failed", res.Failed)
		return nil
	}
}
