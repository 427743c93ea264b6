package dictionary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/memstore"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
)

// verbAnnotator tags every word as a base verb so lemma seeds collapse
// inflections ("is", "was", "are" all become "be").
type verbAnnotator struct{}

func (verbAnnotator) Tag(text string) ([]token.Tagged, error) {
	var out []token.Tagged
	for _, w := range strings.Fields(text) {
		out = append(out, token.Tagged{Word: w, POS: "VB"})
	}
	return out, nil
}

func newDictionary(t *testing.T) (*Dictionary, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	d, err := New(s, 128, metrics.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return d, s
}

func TestGetOrCreateIsStable(t *testing.T) {
	d, _ := newDictionary(t)
	ctx := context.Background()

	first, err := d.GetOrCreate(ctx, token.Stem, 1, "fri")
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.GetOrCreate(ctx, token.Stem, 1, "pickl")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("distinct keys share index %d", first)
	}
	again, _ := d.GetOrCreate(ctx, token.Stem, 1, "fri")
	if again != first {
		t.Errorf("GetOrCreate(fri) = %d then %d", first, again)
	}
	idx, ok, err := d.Lookup(ctx, token.Stem, 1, "fri")
	if err != nil || !ok || idx != first {
		t.Errorf("Lookup = %d, %v, %v", idx, ok, err)
	}
	// Index spaces are independent per variant and length.
	other, _ := d.GetOrCreate(ctx, token.Stem, 2, "fri pickl")
	if other != 0 {
		t.Errorf("first bigram index = %d, want 0", other)
	}
}

func TestLookupMiss(t *testing.T) {
	d, _ := newDictionary(t)
	_, ok, err := d.Lookup(context.Background(), token.Lemma, 3, "never seen key")
	if err != nil || ok {
		t.Errorf("Lookup = %v, %v; want miss", ok, err)
	}
}

func TestLookupValidates(t *testing.T) {
	d, _ := newDictionary(t)
	if _, _, err := d.Lookup(context.Background(), token.Variant(9), 1, "x"); !errors.Is(err, apperrors.ErrTypeMismatch) {
		t.Errorf("bad variant err = %v", err)
	}
	if _, err := d.GetOrCreate(context.Background(), token.Surface, 4, "a b c d"); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("bad length err = %v", err)
	}
}

func TestGetOrCreateConcurrentCreators(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	const creators = 32

	// Separate Dictionary values model separate worker processes: no
	// shared LRU, only the shared store.
	results := make([]int64, creators)
	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := New(s, 16, metrics.NewNop())
			if err != nil {
				t.Error(err)
				return
			}
			idx, err := d.GetOrCreate(ctx, token.Surface, 2, "fried pickles")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = idx
		}()
	}
	wg.Wait()
	for i, idx := range results {
		if idx != results[0] {
			t.Fatalf("creator %d got %d, creator 0 got %d", i, idx, results[0])
		}
	}

	// Later keys never reuse an index, even one discarded by a losing racer.
	d, _ := New(s, 16, metrics.NewNop())
	next, err := d.GetOrCreate(ctx, token.Surface, 2, "are fried")
	if err != nil {
		t.Fatal(err)
	}
	if next == results[0] {
		t.Errorf("new key reused index %d", next)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	d, s := newDictionary(t)
	n := token.NewNormalizer(verbAnnotator{}, nil, nil)

	if err := d.Seed(ctx, n, []int{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	unigrams, _ := SeedPhrases(1)
	if idx, ok, _ := d.Lookup(ctx, token.Surface, 1, unigrams[0]); !ok || idx != 0 {
		t.Errorf("first surface seed %q = %d, %v; want 0", unigrams[0], idx, ok)
	}
	for _, length := range []int{1, 2, 3} {
		surface, _ := s.DictionarySize(ctx, token.Surface, length)
		lemma, _ := s.DictionarySize(ctx, token.Lemma, length)
		if surface < 90 {
			t.Errorf("length %d: %d surface seeds, want about 100", length, surface)
		}
		if lemma > surface || lemma == 0 {
			t.Errorf("length %d: %d lemma seeds vs %d surface", length, lemma, surface)
		}
	}
	if idx, ok, _ := d.Lookup(ctx, token.Lemma, 1, "be"); !ok || idx >= 100 {
		t.Errorf("lemma 'be' = %d, %v; want a seeded index", idx, ok)
	}

	// New terms land above the seeded range.
	before, _ := s.DictionarySize(ctx, token.Stem, 1)
	idx, err := d.GetOrCreate(ctx, token.Stem, 1, "zymurgi")
	if err != nil || idx != before {
		t.Errorf("first organic index = %d, %v; want %d", idx, err, before)
	}

	// Seeding again leaves the grown dictionary alone.
	if err := d.Seed(ctx, n, []int{1}); err != nil {
		t.Fatal(err)
	}
	if after, _ := s.DictionarySize(ctx, token.Stem, 1); after != before+1 {
		t.Errorf("size after reseed = %d, want %d", after, before+1)
	}
}

func TestSeedPhrasesHaveRequestedLength(t *testing.T) {
	for n := 1; n <= 3; n++ {
		phrases, err := SeedPhrases(n)
		if err != nil {
			t.Fatal(err)
		}
		if len(phrases) < 90 {
			t.Errorf("length %d: only %d phrases", n, len(phrases))
		}
		for _, p := range phrases {
			if len(strings.Fields(p)) != n {
				t.Errorf("length %d phrase %q", n, p)
			}
		}
	}
	if _, err := SeedPhrases(4); err == nil {
		t.Error("expected error for length 4")
	}
}
