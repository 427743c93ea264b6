// Package neighbor answers map queries: the distribution of grams found at a
// fixed offset from a query gram, or anywhere alongside it, in the comments
// of one source over a time range.
package neighbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/cache"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/timerange"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/tracing"
)

// Request identifies one map. Position 0 asks for co-occurrence anywhere
// in the comment; any other value asks for the gram that many windows
// after (or, negative, before) the first occurrence of Gram.
type Request struct {
	Gram     token.Gram
	Source   string
	Position int
	Start    time.Time
	Stop     time.Time
}

func (r Request) cacheKey() string {
	return cache.Key("map", r.Source, r.Gram.Variant(), r.Gram.Len(), r.Gram.Key(), r.Position, r.Start, r.Stop)
}

// Querier computes neighbor maps.
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
		logger:     slog.Default().With("component", "map-query"),
	}
}

func (q *Querier) validate(ctx context.Context, r Request) error {
	if r.Gram.Len() == 0 {
		return apperrors.Invalid("query gram is empty")
	}
	if !r.Gram.Variant().Valid() {
		return apperrors.Mismatch("unknown token variant %d", int(r.Gram.Variant()))
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

// Query returns a probability distribution over the dictionary indices of
// the gram's (variant, length). It fails with ErrNoOccurrences when nothing
// was counted, including when the query gram never appears in range.
func (q *Querier) Query(ctx context.Context, r Request) ([]float64, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "map.query")
	span.SetAttr("source", r.Source)
	span.SetAttr("key", r.Gram.Key())
	span.SetAttr("position", r.Position)
	defer span.End()

	if err := q.validate(ctx, r); err != nil {
		q.metrics.QueriesTotal.WithLabelValues("map", "invalid").Inc()
		return nil, err
	}
	r.Start, r.Stop = r.Start.UTC(), r.Stop.UTC()
	if r.Start.Equal(r.Stop) {
		q.metrics.QueriesTotal.WithLabelValues("map", "ok").Inc()
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
	q.metrics.QueryLatency.WithLabelValues("map", status).Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, apperrors.ErrNoOccurrences):
		q.metrics.QueriesTotal.WithLabelValues("map", "empty").Inc()
		return nil, err
	case err != nil:
		q.metrics.QueriesTotal.WithLabelValues("map", "error").Inc()
		return nil, err
	}
	q.metrics.QueriesTotal.WithLabelValues("map", "ok").Inc()
	return v, nil
}

func (q *Querier) compute(ctx context.Context, r Request) ([]float64, error) {
	docs, err := q.documents(ctx, r)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Start(ctx, "map.documents")
	span.SetAttr("documents", len(docs))
	defer span.End()

	v, n := r.Gram.Variant(), r.Gram.Len()
	counts := make(map[int64]float64)
	for _, id := range docs {
		c, err := q.events.GetComment(ctx, r.Source, id)
		if errors.Is(err, apperrors.ErrNotFound) {
			q.logger.Warn("aggregated comment missing", "source", r.Source, "comment_id", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading comment %s: %w", id, err)
		}
		if c.Date.Before(r.Start) || !c.Date.Before(r.Stop) {
			continue
		}
		grams, err := c.Grams(v, n)
		if err != nil {
			return nil, err
		}
		for _, key := range neighbors(grams, r.Gram.Key(), r.Position) {
			idx, ok, err := q.dict.Lookup(ctx, v, n, key)
			if err != nil {
				return nil, err
			}
			if ok {
				counts[idx]++
			}
		}
	}

	var sum float64
	maxIndex := int64(-1)
	for idx, c := range counts {
		sum += c
		if idx > maxIndex {
			maxIndex = idx
		}
	}
	if sum == 0 {
		return nil, apperrors.Newf(apperrors.ErrNoOccurrences, 404,
			"%q at position %d in %s", r.Gram.Key(), r.Position, r.Source)
	}

	size, err := q.dict.Size(ctx, v, n)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary size: %w", err)
	}
	if maxIndex+1 > size {
		size = maxIndex + 1
	}
	out := make([]float64, size)
	for idx, c := range counts {
		out[idx] = c / sum
	}
	return out, nil
}

// documents collects the ids of comments containing the query gram on any
// day touching the range. Comments outside the exact range are dropped
// later, once their dates are known.
func (q *Querier) documents(ctx context.Context, r Request) ([]string, error) {
	ctx, span := tracing.Start(ctx, "map.aggregates")
	defer span.End()

	days := timerange.Touching(r.Start, r.Stop)
	seen := make(map[string]struct{})
	err := q.aggregates.ScanAggregates(ctx, store.AggregateFilter{
		Source:  r.Source,
		Variant: r.Gram.Variant(),
		Length:  r.Gram.Len(),
		Key:     r.Gram.Key(),
		From:    days.Start,
		To:      days.Stop,
	}, func(rec *store.AggregateRecord) error {
		for _, d := range rec.Documents {
			seen[d] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning aggregates for %q: %w", r.Gram.Key(), err)
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// neighbors returns the keys counted for one comment. With position 0 every
// gram whose key differs from key counts once per occurrence, provided key
// occurs at all. Otherwise the first occurrence of key is the anchor and the
// gram at offset position from it counts once, if that offset is inside the
// comment.
func neighbors(grams []token.Gram, key string, position int) []string {
	anchor := -1
	for i, g := range grams {
		if g.Key() == key {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return nil
	}
	if position == 0 {
		var out []string
		for _, g := range grams {
			if g.Key() != key {
				out = append(out, g.Key())
			}
		}
		return out
	}
	j := anchor + position
	if j < 0 || j >= len(grams) {
		return nil
	}
	return []string{grams[j].Key()}
}
