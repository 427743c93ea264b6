// Package pipeline turns a tokenized Comment into stored state: the comment
// row itself, dictionary entries for every gram, and one aggregate merge per
// gram occurrence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
)

// Pipeline inserts comments. It is safe for concurrent use; all shared state
// lives in the stores.
type Pipeline struct {
	events     store.EventStore
	aggregates store.AggregateStore
	dict       *dictionary.Dictionary
	lengths    []int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Pipeline that indexes grams of the given lengths.
func New(events store.EventStore, aggregates store.AggregateStore, dict *dictionary.Dictionary, lengths []int, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		events:     events,
		aggregates: aggregates,
		dict:       dict,
		lengths:    lengths,
		metrics:    m,
		logger:     slog.Default().With("component", "pipeline"),
	}
}

// Insert persists c and merges every gram of every variant into the daily
// aggregates. A duplicate comment fails with ErrDuplicateEvent before any
// aggregate is touched. Per-gram failures are logged and counted in
// InsertResult.Failed without stopping the insert. If ctx is cancelled
// midway, merges already applied stay applied.
func (p *Pipeline) Insert(ctx context.Context, c *ingestion.Comment) (ingestion.InsertResult, error) {
	start := time.Now()
	res := ingestion.InsertResult{CommentID: c.ID, Source: c.Source}

	if err := p.events.InsertComment(ctx, c); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEvent) {
			p.metrics.CommentsIngestedTotal.WithLabelValues("duplicate").Inc()
			return res, err
		}
		p.metrics.CommentsIngestedTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("persisting comment %s/%s: %w", c.Source, c.ID, err)
	}

	day := c.Day()
	for _, n := range p.lengths {
		for _, v := range token.Variants {
			grams, err := c.Grams(v, n)
			if err != nil {
				p.logger.Error("deriving grams", "comment_id", c.ID, "variant", v, "length", n, "error", err)
				p.metrics.GramFailuresTotal.WithLabelValues("grams").Inc()
				res.Failed++
				continue
			}
			for _, g := range grams {
				if err := ctx.Err(); err != nil {
					p.metrics.CommentsIngestedTotal.WithLabelValues("error").Inc()
					return res, err
				}
				res.Grams++
				if !p.merge(ctx, c, day, g) {
					res.Failed++
				}
			}
		}
	}

	p.metrics.CommentsIngestedTotal.WithLabelValues("inserted").Inc()
	p.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("comment inserted",
		"comment_id", c.ID,
		"source", c.Source,
		"grams", res.Grams,
		"failed", res.Failed,
	)
	return res, nil
}

// merge indexes g and folds one occurrence of it into its aggregate row. The
// aggregate is merged even when indexing fails: the row is keyed by term, and
// the index is joined in at read time once some later insert creates it.
func (p *Pipeline) merge(ctx context.Context, c *ingestion.Comment, day time.Time, g token.Gram) bool {
	ok := true
	if _, err := p.dict.GetOrCreate(ctx, g.Variant(), g.Len(), g.Key()); err != nil {
		p.logger.Warn("indexing gram", "comment_id", c.ID, "key", g.Key(), "variant", g.Variant(), "error", err)
		p.metrics.GramFailuresTotal.WithLabelValues("dictionary").Inc()
		ok = false
	}
	err := p.aggregates.Merge(ctx, store.Contribution{
		Source:           c.Source,
		Day:              day,
		Variant:          g.Variant(),
		Length:           g.Len(),
		Key:              g.Key(),
		Raw:              g.Raw(),
		POS:              g.POS(),
		User:             c.Author,
		Document:         c.ID,
		Polarity:         c.Polarity,
		Controversiality: c.Controversiality,
		Emotion:          c.Emotion,
	})
	if err != nil {
		p.logger.Warn("merging gram", "comment_id", c.ID, "key", g.Key(), "variant", g.Variant(), "error", err)
		p.metrics.GramFailuresTotal.WithLabelValues("aggregate").Inc()
		return false
	}
	p.metrics.GramsMergedTotal.WithLabelValues(g.Variant().String(), strconv.Itoa(g.Len())).Inc()
	return ok
}
