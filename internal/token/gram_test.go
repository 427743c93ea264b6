package token

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

func tokens(v Variant, terms ...string) []Token {
	out := make([]Token, len(terms))
	for i, term := range terms {
		out[i] = Token{Raw: term, Term: term, POS: "NN", Variant: v}
	}
	return out
}

func TestNewGram(t *testing.T) {
	g, err := NewGram(tokens(Stem, "fri", "pickl")...)
	if err != nil {
		t.Fatal(err)
	}
	if g.Key() != "fri pickl" || g.Len() != 2 || g.Variant() != Stem {
		t.Errorf("gram = %q len %d variant %s", g.Key(), g.Len(), g.Variant())
	}
	if g.POS() != "NN NN" {
		t.Errorf("pos = %q", g.POS())
	}
}

func TestNewGramRejectsMixedVariants(t *testing.T) {
	mixed := append(tokens(Stem, "fri"), tokens(Lemma, "fry")...)
	_, err := NewGram(mixed...)
	if !errors.Is(err, apperrors.ErrTypeMismatch) {
		t.Errorf("err = %v, want TypeMismatch", err)
	}
}

func TestNewGramRejectsLength(t *testing.T) {
	for _, n := range []int{0, 4} {
		_, err := NewGram(tokens(Surface, "a", "b", "c", "d")[:n]...)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("length %d: err = %v", n, err)
		}
	}
}

func TestGramTupleRoundTrip(t *testing.T) {
	g, _ := NewGram(Token{Raw: "fried", Term: "fry", POS: "VBN", Variant: Lemma}, Token{Raw: "pickles", Term: "pickle", POS: "NNS", Variant: Lemma})
	back, err := GramFromTuples(g.Tuples())
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(g) || back.Key() != g.Key() {
		t.Errorf("round trip %v != %v", back, g)
	}

	b, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Gram
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.Equal(g) {
		t.Errorf("json round trip %v != %v", decoded, g)
	}
}

func TestGramTokensIsCopy(t *testing.T) {
	g, _ := NewGram(tokens(Surface, "fried")...)
	toks := g.Tokens()
	toks[0].Term = "boiled"
	if g.Key() != "fried" || g.Tokens()[0].Term != "fried" {
		t.Error("gram mutated through Tokens()")
	}
}

func TestNgrams(t *testing.T) {
	seq := tokens(Surface, "fried", "pickles", "are", "fried")
	tests := []struct {
		n    int
		want []string
	}{
		{1, []string{"fried", "pickles", "are", "fried"}},
		{2, []string{"fried pickles", "pickles are", "are fried"}},
		{3, []string{"fried pickles are", "pickles are fried"}},
	}
	for _, tt := range tests {
		keys, err := Keys(seq, tt.n)
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != len(tt.want) {
			t.Fatalf("n=%d: %v", tt.n, keys)
		}
		for i := range keys {
			if keys[i] != tt.want[i] {
				t.Errorf("n=%d [%d] = %q, want %q", tt.n, i, keys[i], tt.want[i])
			}
		}
	}
	short, err := Ngrams(seq[:2], 3)
	if err != nil || len(short) != 0 {
		t.Errorf("short sequence: %v, %v", short, err)
	}
	if _, err := Ngrams(seq, 4); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("n=4 err = %v", err)
	}
}
