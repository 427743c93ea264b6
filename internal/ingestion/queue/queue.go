// Package queue decouples comment submission from the ingestion pipeline.
// Local runs the pipeline on an in-process worker pool; Kafka publishes the
// payload for an ingest worker to pick up with Worker.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	"github.com/google/uuid"
)

// Queue accepts raw comments for asynchronous insertion.
type Queue interface {
	Submit(ctx context.Context, raw ingestion.RawComment) (*Handle, error)
	Close() error
}

// Inserter is the pipeline as seen by the queue.
type Inserter interface {
	Insert(ctx context.Context, c *ingestion.Comment) (ingestion.InsertResult, error)
}

// Handle tracks one submitted comment.
type Handle struct {
	TaskID    string
	CommentID string

	done   chan struct{}
	result ingestion.InsertResult
	err    error
}

func newHandle(commentID string) *Handle {
	return &Handle{
		TaskID:    uuid.NewString(),
		CommentID: commentID,
		done:      make(chan struct{}),
	}
}

func (h *Handle) resolve(res ingestion.InsertResult, err error) {
	h.result, h.err = res, err
	close(h.done)
}

// Wait blocks until the task finished or ctx is done. What "finished" means
// depends on the queue: Local resolves after the pipeline ran, Kafka once the
// broker acknowledged the message.
func (h *Handle) Wait(ctx context.Context) (ingestion.InsertResult, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return ingestion.InsertResult{CommentID: h.CommentID}, ctx.Err()
	}
}

// Done is closed once Wait would return without blocking.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// build validates a payload and derives its tokens.
func build(raw ingestion.RawComment, n *token.Normalizer) (*ingestion.Comment, error) {
	if err := validator.ValidateComment(&raw, time.Now()); err != nil {
		return nil, fmt.Errorf("invalid comment %s: %w", raw.ID, err)
	}
	return ingestion.NewComment(raw, n)
}
