// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

// Factory returns an empty store. Sources are made unique per test so that
// a shared database does not leak rows between runs.
type Factory func(t *testing.T) store.Store

// Run exercises s against every store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
	t.Run("Dictionary", func(t *testing.T) { testDictionary(t, newStore(t)) })
	t.Run("Seed", func(t *testing.T) { testSeed(t, newStore(t)) })
	t.Run("ConcurrentCounter", func(t *testing.T) { testConcurrentCounter(t, newStore(t)) })
	t.Run("Aggregates", func(t *testing.T) { testAggregates(t, newStore(t)) })
	t.Run("ConcurrentMerge", func(t *testing.T) { testConcurrentMerge(t, newStore(t)) })
	t.Run("Marks", func(t *testing.T) { testMarks(t, newStore(t)) })
}

// UniqueSource returns a source name that has not been used before.
func UniqueSource(t *testing.T) string {
	return fmt.Sprintf("t%d", time.Now().UnixNano())
}

func comment(source, id string, at time.Time, terms ...string) *ingestion.Comment {
	toks := make([]token.Token, len(terms))
	for i, term := range terms {
		toks[i] = token.Token{Raw: term, Term: term, POS: "NN", Variant: token.Surface}
	}
	return &ingestion.Comment{
		RawComment: ingestion.RawComment{
			ID: id, Source: source, Author: "alice", Date: at.UTC(), Raw: "x", Cooked: "x",
		},
		Tokens: map[token.Variant][]token.Token{token.Surface: toks},
	}
}

func testComments(t *testing.T, s store.Store) {
	ctx := context.Background()
	src := UniqueSource(t)
	day := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)

	if ok, _ := s.SourceExists(ctx, src); ok {
		t.Fatal("fresh source reported as existing")
	}
	c1 := comment(src, "c1", day.Add(10*time.Hour), "fried", "pickles")
	c2 := comment(src, "c2", day.Add(2*time.Hour), "fried")
	for _, c := range []*ingestion.Comment{c1, c2} {
		if err := s.InsertComment(ctx, c); err != nil {
			t.Fatalf("InsertComment(%s): %v", c.ID, err)
		}
	}
	if err := s.InsertComment(ctx, c1); !errors.Is(err, apperrors.ErrDuplicateEvent) {
		t.Errorf("duplicate insert err = %v", err)
	}
	if ok, err := s.SourceExists(ctx, src); err != nil || !ok {
		t.Errorf("SourceExists = %v, %v", ok, err)
	}

	got, err := s.GetComment(ctx, src, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Author != "alice" || len(got.Tokens[token.Surface]) != 2 || got.Tokens[token.Surface][1].Term != "pickles" {
		t.Errorf("GetComment = %+v", got)
	}
	if !got.Date.Equal(c1.Date) {
		t.Errorf("date = %v, want %v", got.Date, c1.Date)
	}
	if _, err := s.GetComment(ctx, src, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing comment err = %v", err)
	}

	var ids []string
	err = s.ScanComments(ctx, src, day, day.Add(10*time.Hour), func(c *ingestion.Comment) error {
		ids = append(ids, c.ID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "c2" {
		t.Errorf("scan [0h,10h) = %v, want [c2]", ids)
	}
}

func testDictionary(t *testing.T, s store.Store) {
	ctx := context.Background()
	v, n := token.Stem, 2
	key := UniqueSource(t) + " term"

	if _, ok, err := s.LookupTerm(ctx, v, n, key); err != nil || ok {
		t.Fatalf("lookup of unseen key = %v, %v", ok, err)
	}
	idx, err := s.NextIndex(ctx, v, n)
	if err != nil {
		t.Fatal(err)
	}
	stored, created, err := s.InsertTerm(ctx, v, n, key, idx)
	if err != nil || !created || stored != idx {
		t.Fatalf("InsertTerm = %d, %v, %v", stored, created, err)
	}
	next, _ := s.NextIndex(ctx, v, n)
	again, created, err := s.InsertTerm(ctx, v, n, key, next)
	if err != nil || created || again != idx {
		t.Errorf("second InsertTerm = %d, %v, %v; want %d, false", again, created, err, idx)
	}
	if got, ok, _ := s.LookupTerm(ctx, v, n, key); !ok || got != idx {
		t.Errorf("LookupTerm = %d, %v", got, ok)
	}
	size, err := s.DictionarySize(ctx, v, n)
	if err != nil || size <= next {
		t.Errorf("DictionarySize = %d, %v; want > %d", size, err, next)
	}
}

func testSeed(t *testing.T, s store.Store) {
	ctx := context.Background()
	// Seeding is per (variant, length) and only once, so reuse the row
	// only if it has not been created by a previous run.
	v, n := token.Lemma, 3
	keys := []string{"one of the", "a lot of", "i do n't"}
	seeded, err := s.SeedTerms(ctx, v, n, keys)
	if err != nil {
		t.Fatal(err)
	}
	if seeded {
		for i, k := range keys {
			if idx, ok, _ := s.LookupTerm(ctx, v, n, k); !ok || idx != int64(i) {
				t.Errorf("seed %q = %d, %v; want %d", k, idx, ok, i)
			}
		}
		if next, _ := s.NextIndex(ctx, v, n); next < int64(len(keys)) {
			t.Errorf("counter after seed = %d, want >= %d", next, len(keys))
		}
	}
	again, err := s.SeedTerms(ctx, v, n, keys)
	if err != nil || again {
		t.Errorf("reseed = %v, %v; want false", again, err)
	}
}

func testConcurrentCounter(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := s.NextIndex(ctx, token.Surface, 3)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[idx] {
				t.Errorf("index %d handed out twice", idx)
			}
			seen[idx] = true
		}()
	}
	wg.Wait()
}

func testAggregates(t *testing.T, s store.Store) {
	ctx := context.Background()
	src := UniqueSource(t)
	day := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)
	pol := 0.5
	base := store.Contribution{
		Source: src, Day: day, Variant: token.Surface, Length: 1,
		Key: "fried", Raw: "fried", POS: "VBN", Polarity: &pol, Emotion: "joy",
	}
	merges := []struct{ user, doc string }{{"alice", "c1"}, {"alice", "c1"}, {"bob", "c2"}}
	for _, m := range merges {
		c := base
		c.User, c.Document = m.user, m.doc
		if err := s.Merge(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	unindexed := src + "-pickles"
	other := base
	other.Key, other.Day, other.User, other.Document = unindexed, day.AddDate(0, 0, 1), "carol", "c3"
	if err := s.Merge(ctx, other); err != nil {
		t.Fatal(err)
	}

	idx, _ := s.NextIndex(ctx, token.Surface, 1)
	if _, _, err := s.InsertTerm(ctx, token.Surface, 1, "fried", idx); err != nil {
		t.Fatal(err)
	}

	var recs []*store.AggregateRecord
	f := store.AggregateFilter{Source: src, Variant: token.Surface, Length: 1, From: day, To: day.AddDate(0, 0, 1)}
	if err := s.ScanAggregates(ctx, f, func(r *store.AggregateRecord) error {
		recs = append(recs, r)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("records in [day, day+1) = %d, want 1", len(recs))
	}
	r := recs[0]
	if r.Count != 3 || r.Total != 3 {
		t.Errorf("count/total = %d/%d, want 3/3", r.Count, r.Total)
	}
	if len(r.Users) != 2 || len(r.Documents) != 2 {
		t.Errorf("users %v documents %v, want 2 distinct each", r.Users, r.Documents)
	}
	if len(r.PolaritySamples) != 3 || len(r.EmotionSamples) != 3 {
		t.Errorf("samples = %d/%d, want 3 appended", len(r.PolaritySamples), len(r.EmotionSamples))
	}
	if r.Index < 0 {
		t.Errorf("index = %d, want dictionary index", r.Index)
	}

	f.To = day.AddDate(0, 0, 2)
	f.Key = unindexed
	recs = nil
	s.ScanAggregates(ctx, f, func(r *store.AggregateRecord) error {
		recs = append(recs, r)
		return nil
	})
	if len(recs) != 1 || recs[0].Key != unindexed || recs[0].Index != -1 {
		t.Errorf("keyed scan = %+v", recs)
	}
}

func testConcurrentMerge(t *testing.T, s store.Store) {
	ctx := context.Background()
	src := UniqueSource(t)
	day := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)
	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Merge(ctx, store.Contribution{
				Source: src, Day: day, Variant: token.Stem, Length: 1, Key: "fri",
				Raw: "fried", POS: "VBN", User: fmt.Sprintf("u%d", i%5), Document: fmt.Sprintf("d%d", i),
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	var rec *store.AggregateRecord
	s.ScanAggregates(ctx, store.AggregateFilter{Source: src, Variant: token.Stem, Length: 1, From: day, To: day.AddDate(0, 0, 1)},
		func(r *store.AggregateRecord) error { rec = r; return nil })
	if rec == nil {
		t.Fatal("no record after concurrent merges")
	}
	if rec.Count != writers || len(rec.Documents) != writers || len(rec.Users) != 5 {
		t.Errorf("count %d documents %d users %d; want %d/%d/5", rec.Count, len(rec.Documents), len(rec.Users), writers, writers)
	}
}

func testMarks(t *testing.T, s store.Store) {
	ctx := context.Background()
	src := UniqueSource(t)
	if _, ok, err := s.LastDate(ctx, src); err != nil || ok {
		t.Fatalf("fresh mark = %v, %v", ok, err)
	}
	mark := time.Date(2016, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SetLastDate(ctx, src, mark); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastDate(ctx, src, mark.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.LastDate(ctx, src)
	if err != nil || !ok || !got.Equal(mark.Add(time.Hour)) {
		t.Errorf("LastDate = %v, %v, %v", got, ok, err)
	}
}
