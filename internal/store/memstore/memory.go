// Package memstore is an in-memory store.Store used by tests and by the
// single-process mode of corpus-api.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

type commentKey struct {
	source string
	id     string
}

type dictKey struct {
	variant token.Variant
	length  int
}

type aggKey struct {
	source  string
	day     time.Time
	variant token.Variant
	length  int
	key     string
}

// Store keeps everything behind one RWMutex, which makes every operation
// trivially atomic.
type Store struct {
	mu         sync.RWMutex
	comments   map[commentKey]*ingestion.Comment
	bySource   map[string][]*ingestion.Comment
	dictionary map[dictKey]map[string]int64
	counters   map[dictKey]int64
	aggregates map[aggKey]*store.AggregateRecord
	marks      map[string]time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		comments:   make(map[commentKey]*ingestion.Comment),
		bySource:   make(map[string][]*ingestion.Comment),
		dictionary: make(map[dictKey]map[string]int64),
		counters:   make(map[dictKey]int64),
		aggregates: make(map[aggKey]*store.AggregateRecord),
		marks:      make(map[string]time.Time),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// Close implements store.Store.
func (s *Store) Close() error { return nil }

func (s *Store) InsertComment(ctx context.Context, c *ingestion.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := commentKey{c.Source, c.ID}
	if _, ok := s.comments[k]; ok {
		return apperrors.Newf(apperrors.ErrDuplicateEvent, 409, "comment %s/%s", c.Source, c.ID)
	}
	cp := copyComment(c)
	s.comments[k] = cp
	list := append(s.bySource[c.Source], cp)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	s.bySource[c.Source] = list
	return nil
}

func (s *Store) GetComment(ctx context.Context, source, id string) (*ingestion.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[commentKey{source, id}]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, 404, "comment %s/%s", source, id)
	}
	return copyComment(c), nil
}

func (s *Store) ScanComments(ctx context.Context, source string, start, stop time.Time, fn func(*ingestion.Comment) error) error {
	s.mu.RLock()
	var matched []*ingestion.Comment
	for _, c := range s.bySource[source] {
		if !c.Date.Before(start) && c.Date.Before(stop) {
			matched = append(matched, copyComment(c))
		}
	}
	s.mu.RUnlock()

	for _, c := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SourceExists(ctx context.Context, source string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySource[source]) > 0, nil
}

func (s *Store) LookupTerm(ctx context.Context, v token.Variant, length int, key string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.dictionary[dictKey{v, length}][key]
	return idx, ok, nil
}

func (s *Store) NextIndex(ctx context.Context, v token.Variant, length int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := dictKey{v, length}
	idx := s.counters[k]
	s.counters[k] = idx + 1
	return idx, nil
}

func (s *Store) InsertTerm(ctx context.Context, v token.Variant, length int, key string, idx int64) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := dictKey{v, length}
	terms := s.dictionary[k]
	if terms == nil {
		terms = make(map[string]int64)
		s.dictionary[k] = terms
	}
	if existing, ok := terms[key]; ok {
		return existing, false, nil
	}
	terms[key] = idx
	return idx, true, nil
}

func (s *Store) SeedTerms(ctx context.Context, v token.Variant, length int, keys []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := dictKey{v, length}
	if _, ok := s.counters[k]; ok {
		return false, nil
	}
	terms := s.dictionary[k]
	if terms == nil {
		terms = make(map[string]int64, len(keys))
		s.dictionary[k] = terms
	}
	for i, key := range keys {
		if _, dup := terms[key]; dup {
			return false, fmt.Errorf("seeding %s/%d: duplicate key %q", v, length, key)
		}
		terms[key] = int64(i)
	}
	s.counters[k] = int64(len(keys))
	return true, nil
}

func (s *Store) DictionarySize(ctx context.Context, v token.Variant, length int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[dictKey{v, length}], nil
}

func (s *Store) Merge(ctx context.Context, c store.Contribution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := aggKey{c.Source, c.Day.UTC(), c.Variant, c.Length, c.Key}
	rec, ok := s.aggregates[k]
	if !ok {
		rec = &store.AggregateRecord{
			Source:  c.Source,
			Day:     k.day,
			Variant: c.Variant,
			Length:  c.Length,
			Key:     c.Key,
		}
		s.aggregates[k] = rec
	}
	rec.Count++
	rec.Total++
	rec.Users = addToSet(rec.Users, c.User)
	rec.Documents = addToSet(rec.Documents, c.Document)
	rec.RawForms = addToSet(rec.RawForms, c.Raw)
	rec.POSForms = addToSet(rec.POSForms, c.POS)
	rec.PolaritySamples = append(rec.PolaritySamples, c.Polarity)
	rec.ControversySamples = append(rec.ControversySamples, c.Controversiality)
	rec.EmotionSamples = append(rec.EmotionSamples, c.Emotion)
	return nil
}

func (s *Store) ScanAggregates(ctx context.Context, f store.AggregateFilter, fn func(*store.AggregateRecord) error) error {
	s.mu.RLock()
	var matched []*store.AggregateRecord
	for k, rec := range s.aggregates {
		if k.source != f.Source || k.variant != f.Variant || k.length != f.Length {
			continue
		}
		if f.Key != "" && k.key != f.Key {
			continue
		}
		if k.day.Before(f.From) || !k.day.Before(f.To) {
			continue
		}
		cp := copyRecord(rec)
		cp.Index = -1
		if idx, ok := s.dictionary[dictKey{k.variant, k.length}][k.key]; ok {
			cp.Index = idx
		}
		matched = append(matched, cp)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Day.Equal(matched[j].Day) {
			return matched[i].Day.Before(matched[j].Day)
		}
		return matched[i].Key < matched[j].Key
	})
	for _, rec := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LastDate(ctx context.Context, source string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.marks[source]
	return t, ok, nil
}

func (s *Store) SetLastDate(ctx context.Context, source string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[source] = t.UTC()
	return nil
}

func addToSet(set []string, v string) []string {
	for _, existing := range set {
		if existing == v {
			return set
		}
	}
	return append(set, v)
}

func copyComment(c *ingestion.Comment) *ingestion.Comment {
	cp := *c
	cp.Links = append([]string(nil), c.Links...)
	cp.Tokens = make(map[token.Variant][]token.Token, len(c.Tokens))
	for v, toks := range c.Tokens {
		cp.Tokens[v] = append([]token.Token(nil), toks...)
	}
	return &cp
}

func copyRecord(r *store.AggregateRecord) *store.AggregateRecord {
	cp := *r
	cp.RawForms = append([]string(nil), r.RawForms...)
	cp.POSForms = append([]string(nil), r.POSForms...)
	cp.Users = append([]string(nil), r.Users...)
	cp.Documents = append([]string(nil), r.Documents...)
	cp.PolaritySamples = append([]*float64(nil), r.PolaritySamples...)
	cp.ControversySamples = append([]int(nil), r.ControversySamples...)
	cp.EmotionSamples = append([]string(nil), r.EmotionSamples...)
	return &cp
}

var _ store.Store = (*Store)(nil)
