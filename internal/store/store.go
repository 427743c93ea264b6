// Package store declares the persistence boundary of the corpus: comments,
// the term dictionary and its counters, daily aggregates, and crawler marks.
//
// Every write the corpus makes is either insert-if-absent or a single-row
// merge, so implementations only need per-row atomicity.
package store

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
)

// EventStore holds comments exactly as ingested.
type EventStore interface {
	// InsertComment persists c once. A second insert of the same
	// (source, id) fails with errors.ErrDuplicateEvent.
	InsertComment(ctx context.Context, c *ingestion.Comment) error
	// GetComment fails with errors.ErrNotFound for unknown ids.
	GetComment(ctx context.Context, source, id string) (*ingestion.Comment, error)
	// ScanComments calls fn for each comment of source dated in
	// [start, stop), in date order.
	ScanComments(ctx context.Context, source string, start, stop time.Time, fn func(*ingestion.Comment) error) error
	SourceExists(ctx context.Context, source string) (bool, error)
}

// DictionaryStore holds the append-only term dictionary and the counters
// that assign its indices.
type DictionaryStore interface {
	LookupTerm(ctx context.Context, v token.Variant, length int, key string) (idx int64, ok bool, err error)
	// NextIndex atomically increments the (v, length) counter and returns
	// the value it held before the increment.
	NextIndex(ctx context.Context, v token.Variant, length int) (int64, error)
	// InsertTerm stores key at idx unless key already has an index, in
	// which case the existing index is returned with created=false.
	InsertTerm(ctx context.Context, v token.Variant, length int, key string, idx int64) (stored int64, created bool, err error)
	// SeedTerms assigns keys the indices 0..len(keys)-1 and sets the
	// counter to len(keys), but only if the counter does not exist yet.
	// It reports whether it seeded.
	SeedTerms(ctx context.Context, v token.Variant, length int, keys []string) (bool, error)
	// DictionarySize is the counter value, the upper bound of any index
	// assigned so far.
	DictionarySize(ctx context.Context, v token.Variant, length int) (int64, error)
}

// Contribution is one gram occurrence in one comment, the unit of an
// aggregate merge.
type Contribution struct {
	Source           string
	Day              time.Time
	Variant          token.Variant
	Length           int
	Key              string
	Raw              string
	POS              string
	User             string
	Document         string
	Polarity         *float64
	Controversiality int
	Emotion          string
}

// AggregateRecord is the per-(source, day, variant, length, key) rollup.
// Index is the key's dictionary index, or -1 when the key was never indexed.
type AggregateRecord struct {
	Source             string
	Day                time.Time
	Variant            token.Variant
	Length             int
	Key                string
	Index              int64
	RawForms           []string
	POSForms           []string
	Count              int64
	Total              int64
	Users              []string
	Documents          []string
	PolaritySamples    []*float64
	ControversySamples []int
	EmotionSamples     []string
}

// AggregateFilter selects aggregate rows. Days are half-open: From <= day < To.
// An empty Key selects every key.
type AggregateFilter struct {
	Source  string
	Variant token.Variant
	Length  int
	Key     string
	From    time.Time
	To      time.Time
}

// AggregateStore accumulates daily statistics.
type AggregateStore interface {
	// Merge increments count and total, unions user and document, appends
	// the samples and records the raw and POS renderings, all as one
	// atomic row operation.
	Merge(ctx context.Context, c Contribution) error
	ScanAggregates(ctx context.Context, f AggregateFilter, fn func(*AggregateRecord) error) error
}

// MarkStore persists the crawler's per-source high-water mark.
type MarkStore interface {
	LastDate(ctx context.Context, source string) (time.Time, bool, error)
	SetLastDate(ctx context.Context, source string, t time.Time) error
}

// Store is the full backend a corpus process runs against.
type Store interface {
	EventStore
	DictionaryStore
	AggregateStore
	MarkStore
	Ping(ctx context.Context) error
	Close() error
}
