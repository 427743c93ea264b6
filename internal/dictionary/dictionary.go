// Package dictionary maps gram keys to dense integer indices, one index space
// per (variant, gram length). Entries are append-only: once a key has an
// index it keeps it forever, which is what lets resolved pairs live in an
// in-process LRU with no invalidation.
package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	variant token.Variant
	length  int
	key     string
}

// Dictionary fronts a store.DictionaryStore with an LRU of resolved indices.
type Dictionary struct {
	store   store.DictionaryStore
	cache   *lru.Cache[cacheKey, int64]
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Dictionary caching up to cacheSize resolved keys.
func New(s store.DictionaryStore, cacheSize int, m *metrics.Metrics) (*Dictionary, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[cacheKey, int64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating dictionary cache: %w", err)
	}
	return &Dictionary{
		store:   s,
		cache:   cache,
		metrics: m,
		logger:  logger.WithComponent("dictionary"),
	}, nil
}

func validate(v token.Variant, length int) error {
	if !v.Valid() {
		return apperrors.Mismatch("unknown token variant %d", int(v))
	}
	if length < 1 || length > token.MaxGramLength {
		return apperrors.Invalid("gram length %d outside 1..%d", length, token.MaxGramLength)
	}
	return nil
}

// Lookup returns the index of key, or ok=false when the key was never seen.
func (d *Dictionary) Lookup(ctx context.Context, v token.Variant, length int, key string) (int64, bool, error) {
	if err := validate(v, length); err != nil {
		return 0, false, err
	}
	ck := cacheKey{v, length, key}
	if idx, ok := d.cache.Get(ck); ok {
		d.metrics.DictionaryCacheTotal.WithLabelValues("hit").Inc()
		return idx, true, nil
	}
	d.metrics.DictionaryCacheTotal.WithLabelValues("miss").Inc()
	idx, ok, err := d.store.LookupTerm(ctx, v, length, key)
	if err != nil {
		return 0, false, err
	}
	if ok {
		d.cache.Add(ck, idx)
	}
	return idx, ok, nil
}

// GetOrCreate returns the index of key, assigning the next counter value if
// the key is new. When two callers race on the same new key the loser's
// counter value is discarded and it returns the winner's index, leaving a
// permanent gap in the index space.
func (d *Dictionary) GetOrCreate(ctx context.Context, v token.Variant, length int, key string) (int64, error) {
	idx, ok, err := d.Lookup(ctx, v, length, key)
	if err != nil {
		return 0, err
	}
	if ok {
		return idx, nil
	}
	next, err := d.store.NextIndex(ctx, v, length)
	if err != nil {
		return 0, err
	}
	stored, created, err := d.store.InsertTerm(ctx, v, length, key, next)
	if err != nil {
		return 0, err
	}
	if created {
		d.metrics.DictionaryTermsTotal.WithLabelValues(v.String(), strconv.Itoa(length)).Inc()
	} else {
		d.logger.Debug("lost dictionary race", "variant", v, "length", length, "key", key, "discarded", next, "index", stored)
	}
	d.cache.Add(cacheKey{v, length, key}, stored)
	return stored, nil
}

// Size is the exclusive upper bound of every index assigned so far for
// (v, length). Vector results are at least this long once the range holds
// any data.
func (d *Dictionary) Size(ctx context.Context, v token.Variant, length int) (int64, error) {
	if err := validate(v, length); err != nil {
		return 0, err
	}
	return d.store.DictionarySize(ctx, v, length)
}
