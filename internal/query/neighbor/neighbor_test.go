package neighbor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/querytest"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
)

var at = querytest.At

func setup(t *testing.T) (*Querier, *querytest.Corpus) {
	t.Helper()
	c := querytest.New(t)
	return New(c.Store, c.Store, c.Dictionary, querytest.Cache(t, "map"), metrics.NewNop()), c
}

func surface(t *testing.T, words ...string) token.Gram {
	t.Helper()
	tokens := make([]token.Token, len(words))
	for i, w := range words {
		tokens[i] = token.Token{Raw: w, Term: w, Variant: token.Surface}
	}
	g, err := token.NewGram(tokens...)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type want map[string]float64

func check(t *testing.T, c *querytest.Corpus, n int, got []float64, expected want) {
	t.Helper()
	var sum float64
	for _, p := range got {
		sum += p
	}
	if !near(sum, 1) {
		t.Errorf("probabilities sum to %v", sum)
	}
	for key, p := range expected {
		if idx := c.Index(t, token.Surface, n, key); !near(got[idx], p) {
			t.Errorf("p(%q) = %v, want %v", key, got[idx], p)
		}
	}
}

func TestQueryPositions(t *testing.T) {
	q, c := setup(t)
	all := [2]time.Time{at(1, 0, 0), at(4, 0, 0)}
	tests := []struct {
		name     string
		gram     token.Gram
		position int
		span     [2]time.Time
		want     want
	}{
		{"following", surface(t, "pickles"), 1, all, want{"are": 1}},
		{"preceding", surface(t, "pickles"), -1, all, want{"fried": 1, "are": 0}},
		{"co-occurring", surface(t, "fish"), 0, all, want{"fried": 0.5, "green": 0.25, "are": 0.25, "fish": 0}},
		{"bigrams", surface(t, "pickles", "are"), 1, all, want{"are fried": 0.5, "are green": 0.5}},
		// c4 shares day 2 with c3 but falls after the stop.
		{"cut day", surface(t, "fried"), 1, [2]time.Time{at(2, 0, 0), at(2, 12, 0)}, want{"fish": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Query(context.Background(), Request{
				Gram:     tt.gram,
				Source:   querytest.Source,
				Position: tt.position,
				Start:    tt.span[0],
				Stop:     tt.span[1],
			})
			if err != nil {
				t.Fatal(err)
			}
			check(t, c, tt.gram.Len(), got, tt.want)
		})
	}
}

func TestPositionZeroExcludesQueryGram(t *testing.T) {
	q, c := setup(t)
	// green appears once on day 1, in c2 "pickles are green".
	got, err := q.Query(context.Background(), Request{
		Gram:   surface(t, "green"),
		Source: querytest.Source,
		Start:  at(1, 0, 0),
		Stop:   at(2, 0, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	check(t, c, 1, got, want{"pickles": 0.5, "are": 0.5, "green": 0})
}

func TestRepeatedGramAnchorsOnFirstOccurrence(t *testing.T) {
	q, c := setup(t)
	c.Insert(t, querytest.Fixture{ID: "c6", Author: "dan", Text: "fried pickles are fried fish", At: at(5, 12, 0)})
	got, err := q.Query(context.Background(), Request{
		Gram:     surface(t, "fried"),
		Source:   querytest.Source,
		Position: 1,
		Start:    at(5, 0, 0),
		Stop:     at(6, 0, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	check(t, c, 1, got, want{"pickles": 1, "fish": 0})
}

func TestNoOccurrences(t *testing.T) {
	q, _ := setup(t)
	for _, r := range []Request{
		{Gram: surface(t, "cars"), Position: 1},
		{Gram: surface(t, "fish"), Position: 5},
		{Gram: surface(t, "fish"), Position: 0, Start: at(1, 0, 0), Stop: at(1, 23, 0)},
	} {
		r.Source = querytest.Source
		if r.Start.IsZero() {
			r.Start, r.Stop = at(1, 0, 0), at(4, 0, 0)
		}
		if _, err := q.Query(context.Background(), r); !errors.Is(err, apperrors.ErrNoOccurrences) {
			t.Errorf("%q position %d: err = %v, want ErrNoOccurrences", r.Gram.Key(), r.Position, err)
		}
	}
}

func TestEmptyRange(t *testing.T) {
	q, _ := setup(t)
	got, err := q.Query(context.Background(), Request{
		Gram:   surface(t, "fried"),
		Source: querytest.Source,
		Start:  at(2, 0, 0),
		Stop:   at(2, 0, 0),
	})
	if err != nil || len(got) != 0 {
		t.Errorf("empty range = %v, %v", got, err)
	}
}

func TestQueryValidation(t *testing.T) {
	q, _ := setup(t)
	tests := []struct {
		name string
		r    Request
	}{
		{"unknown source", Request{Gram: surface(t, "fried"), Source: "cars", Start: at(1, 0, 0), Stop: at(2, 0, 0)}},
		{"empty gram", Request{Source: querytest.Source, Start: at(1, 0, 0), Stop: at(2, 0, 0)}},
		{"reversed range", Request{Gram: surface(t, "fried"), Source: querytest.Source, Start: at(2, 0, 0), Stop: at(1, 0, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := q.Query(context.Background(), tt.r); !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	grams := func(words ...string) []token.Gram {
		out := make([]token.Gram, len(words))
		for i, w := range words {
			out[i] = surface(t, w)
		}
		return out
	}
	seq := grams("fried", "pickles", "are", "fried")
	tests := []struct {
		position int
		want     []string
	}{
		{0, []string{"pickles", "are"}},
		{1, []string{"pickles"}},
		// The anchor is the first "fried"; the later one is not consulted.
		{-1, nil},
		{3, []string{"fried"}},
		{4, nil},
	}
	for _, tt := range tests {
		got := neighbors(seq, "fried", tt.position)
		if len(got) != len(tt.want) {
			t.Errorf("position %d: got %v, want %v", tt.position, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("position %d: got %v, want %v", tt.position, got, tt.want)
				break
			}
		}
	}
	if got := neighbors(seq, "fish", 0); got != nil {
		t.Errorf("absent key gave %v", got)
	}
}
