package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("queue closed")

type task struct {
	raw       ingestion.RawComment
	handle    *Handle
	requestID string
}

// Local is a bounded in-process worker pool in front of the pipeline.
// Submit blocks while the buffer is full.
type Local struct {
	pipeline   Inserter
	normalizer *token.Normalizer
	metrics    *metrics.Metrics
	logger     *slog.Logger

	tasks  chan task
	group  *errgroup.Group
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewLocal starts workers goroutines draining a queue of buffer tasks.
func NewLocal(p Inserter, n *token.Normalizer, workers, buffer int, m *metrics.Metrics) *Local {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	q := &Local{
		pipeline:   p,
		normalizer: n,
		metrics:    m,
		logger:     slog.Default().With("component", "local-queue"),
		tasks:      make(chan task, buffer),
		group:      g,
		cancel:     cancel,
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			q.work(gctx)
			return nil
		})
	}
	q.logger.Info("local queue started", "workers", workers, "buffer", buffer)
	return q
}

func (q *Local) Submit(ctx context.Context, raw ingestion.RawComment) (*Handle, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrClosed
	}
	h := newHandle(raw.ID)
	select {
	case q.tasks <- task{raw: raw, handle: h, requestID: logger.RequestID(ctx)}:
		q.metrics.QueueDepth.Inc()
		return h, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Local) work(ctx context.Context) {
	for t := range q.tasks {
		q.metrics.QueueDepth.Dec()
		tctx := logger.With(logger.WithRequestID(ctx, t.requestID),
			"task_id", t.handle.TaskID, "comment_id", t.raw.ID, "source", t.raw.Source)
		res, err := q.process(tctx, t.raw)
		t.handle.resolve(res, err)
	}
}

func (q *Local) process(ctx context.Context, raw ingestion.RawComment) (ingestion.InsertResult, error) {
	res := ingestion.InsertResult{CommentID: raw.ID, Source: raw.Source}
	log := logger.FromContext(ctx).With("component", "local-queue")
	c, err := build(raw, q.normalizer)
	if err != nil {
		log.Warn("rejecting comment", "error", err)
		return res, err
	}
	res, err = q.pipeline.Insert(ctx, c)
	switch {
	case errors.Is(err, apperrors.ErrDuplicateEvent):
		log.Debug("duplicate comment")
	case err != nil:
		log.Error("inserting comment", "error", err)
	}
	return res, err
}

// Close stops accepting tasks, lets the workers drain what is buffered and
// waits for them.
func (q *Local) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	err := q.group.Wait()
	q.cancel()
	q.logger.Info("local queue stopped")
	return err
}
