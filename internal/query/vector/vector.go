// Package vector answers frequency-vector queries: one component per
// dictionary index of a (variant, gram length), over an arbitrary UTC time
// range of one source.
package vector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/cache"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/timerange"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/tracing"
)

// Request identifies one vector. Start and Stop bound the half-open range
// [Start, Stop).
type Request struct {
	Source    string
	Variant   token.Variant
	Length    int
	Statistic Statistic
	Start     time.Time
	Stop      time.Time
}

func (r Request) cacheKey() string {
	return cache.Key("vector", r.Source, r.Variant, r.Length, r.Statistic, r.Start, r.Stop)
}

// Querier computes vectors from daily aggregates plus raw comments for the
// partial days at either end of the range.
type Querier struct {
	events     store.EventStore
	aggregates store.AggregateStore
	dict       *dictionary.Dictionary
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(events store.EventStore, aggregates store.AggregateStore, dict *dictionary.Dictionary, c *cache.Cache, m *metrics.Metrics) *Querier {
	return &Querier{
		events:     events,
		aggregates: aggregates,
		dict:       dict,
		cache:      c,
		metrics:    m,
		logger:     slog.Default().With("component", "vector-query"),
	}
}

// Validate checks a request without touching the aggregates.
func (q *Querier) Validate(ctx context.Context, r Request) error {
	if !r.Variant.Valid() {
		return apperrors.Mismatch("unknown token variant %d", int(r.Variant))
	}
	if !r.Statistic.Valid() {
		return apperrors.Mismatch("unknown statistic %d", int(r.Statistic))
	}
	if r.Length < 1 || r.Length > token.MaxGramLength {
		return apperrors.Invalid("gram length %d outside 1..%d", r.Length, token.MaxGramLength)
	}
	if err := timerange.Validate(r.Start, r.Stop); err != nil {
		return err
	}
	ok, err := q.events.SourceExists(ctx, r.Source)
	if err != nil {
		return fmt.Errorf("checking source %s: %w", r.Source, err)
	}
	if !ok {
		return apperrors.Invalid("unknown source %q", r.Source)
	}
	return nil
}

// Query returns the vector for r. An empty range yields an empty vector;
// otherwise the vector is as long as the dictionary for (variant, length).
func (q *Querier) Query(ctx context.Context, r Request) ([]float64, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "vector.query")
	span.SetAttr("source", r.Source)
	span.SetAttr("statistic", r.Statistic.String())
	defer span.End()

	if err := q.Validate(ctx, r); err != nil {
		q.metrics.QueriesTotal.WithLabelValues("vector", "invalid").Inc()
		return nil, err
	}
	r.Start, r.Stop = r.Start.UTC(), r.Stop.UTC()
	if r.Start.Equal(r.Stop) {
		q.metrics.QueriesTotal.WithLabelValues("vector", "ok").Inc()
		return []float64{}, nil
	}

	v, hit, err := q.cache.GetOrCompute(ctx, r.cacheKey(), func(ctx context.Context) ([]float64, error) {
		return q.compute(ctx, r)
	})
	status := "miss"
	if hit {
		status = "hit"
	}
	span.SetAttr("cache", status)
	q.metrics.QueryLatency.WithLabelValues("vector", status).Observe(time.Since(start).Seconds())
	if err != nil {
		q.metrics.QueriesTotal.WithLabelValues("vector", "error").Inc()
		return nil, err
	}
	q.metrics.QueriesTotal.WithLabelValues("vector", "ok").Inc()
	return v, nil
}

func (q *Querier) compute(ctx context.Context, r Request) ([]float64, error) {
	t := newTally()
	split := timerange.New(r.Start, r.Stop)

	if !split.Days.Empty() {
		if err := q.addDays(ctx, r, split.Days, t); err != nil {
			return nil, err
		}
	}
	for _, rem := range split.Remainders {
		if err := q.addRemainder(ctx, r, rem, t); err != nil {
			return nil, err
		}
	}

	size, err := q.dict.Size(ctx, r.Variant, r.Length)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary size: %w", err)
	}
	if t.maxIndex+1 > size {
		size = t.maxIndex + 1
	}
	return t.vector(r.Statistic, size), nil
}

func (q *Querier) addDays(ctx context.Context, r Request, days timerange.Span, t *tally) error {
	ctx, span := tracing.Start(ctx, "vector.aggregates")
	defer span.End()

	rows, skipped := 0, 0
	err := q.aggregates.ScanAggregates(ctx, store.AggregateFilter{
		Source:  r.Source,
		Variant: r.Variant,
		Length:  r.Length,
		From:    days.Start,
		To:      days.Stop,
	}, func(rec *store.AggregateRecord) error {
		rows++
		if rec.Index < 0 {
			skipped++
			return nil
		}
		t.add(rec.Index, float64(rec.Count), rec.Documents, rec.Users)
		return nil
	})
	span.SetAttr("rows", rows)
	if skipped > 0 {
		q.logger.Warn("aggregates without dictionary index", "source", r.Source, "variant", r.Variant, "length", r.Length, "rows", skipped)
	}
	if err != nil {
		return fmt.Errorf("scanning aggregates: %w", err)
	}
	return nil
}

// addRemainder recounts a partial day from raw comments. Nothing is written
// back: remainders are too narrow to be reused.
func (q *Querier) addRemainder(ctx context.Context, r Request, rem timerange.Span, t *tally) error {
	ctx, span := tracing.Start(ctx, "vector.remainder")
	defer span.End()

	comments := 0
	err := q.events.ScanComments(ctx, r.Source, rem.Start, rem.Stop, func(c *ingestion.Comment) error {
		comments++
		grams, err := c.Grams(r.Variant, r.Length)
		if err != nil {
			return err
		}
		doc, user := []string{c.ID}, []string{c.Author}
		for _, g := range grams {
			idx, ok, err := q.dict.Lookup(ctx, r.Variant, r.Length, g.Key())
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			t.add(idx, 1, doc, user)
		}
		return nil
	})
	span.SetAttr("comments", comments)
	q.metrics.RemainderComments.Observe(float64(comments))
	if err != nil {
		return fmt.Errorf("scanning comments %s..%s: %w", rem.Start.Format(time.RFC3339), rem.Stop.Format(time.RFC3339), err)
	}
	return nil
}
