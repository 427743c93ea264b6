// Package querytest builds a small in-memory corpus shared by the query
// package tests.
package querytest

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/cache"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/memstore"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token/tokentest"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
)

// Source is the source every fixture comment belongs to.
const Source = "food"

// At returns 2024-03-<day> <hour>:<min> UTC.
func At(day, hour, min int) time.Time {
	return time.Date(2024, 3, day, hour, min, 0, 0, time.UTC)
}

// Fixture is one comment of the shared corpus.
type Fixture struct {
	ID     string
	Author string
	Text   string
	At     time.Time
}

// Fixtures spans three days, with comments near both midnights so that
// ranges can cut days into remainders.
var Fixtures = []Fixture{
	{"c1", "ann", "fried pickles are fried", At(1, 10, 0)},
	{"c2", "bob", "pickles are green", At(1, 15, 0)},
	{"c3", "ann", "fried fish", At(2, 9, 0)},
	{"c4", "cat", "fried pickles", At(2, 23, 30)},
	{"c5", "bob", "green fish are fried", At(3, 1, 0)},
}

// Corpus is a memory-backed store with the fixtures ingested.
type Corpus struct {
	Store      *memstore.Store
	Dictionary *dictionary.Dictionary
	Pipeline   *pipeline.Pipeline
}

// New ingests Fixtures into a fresh memory store.
func New(t testing.TB) *Corpus {
	t.Helper()
	s := memstore.New()
	d, err := dictionary.New(s, 256, metrics.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	c := &Corpus{
		Store:      s,
		Dictionary: d,
		Pipeline:   pipeline.New(s, s, d, []int{1, 2, 3}, metrics.NewNop()),
	}
	for _, f := range Fixtures {
		c.Insert(t, f)
	}
	return c
}

// Insert tokenizes and ingests f.
func (c *Corpus) Insert(t testing.TB, f Fixture) {
	t.Helper()
	comment, err := ingestion.NewComment(ingestion.RawComment{
		ID:     f.ID,
		Source: Source,
		Author: f.Author,
		Date:   f.At,
		Raw:    f.Text,
	}, tokentest.Normalizer())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Pipeline.Insert(context.Background(), comment); err != nil {
		t.Fatalf("inserting %s: %v", f.ID, err)
	}
}

// Index returns the dictionary index of key, failing the test if it has
// none.
func (c *Corpus) Index(t testing.TB, v token.Variant, n int, key string) int64 {
	t.Helper()
	idx, ok, err := c.Dictionary.Lookup(context.Background(), v, n, key)
	if err != nil || !ok {
		t.Fatalf("no index for %s/%d %q: %v", v, n, key, err)
	}
	return idx
}

// Cache returns an LRU-only result cache.
func Cache(t testing.TB, kind string) *cache.Cache {
	t.Helper()
	l, err := cache.NewLRUStore(64)
	if err != nil {
		t.Fatal(err)
	}
	return cache.New(kind, l, nil, nil, metrics.NewNop())
}
