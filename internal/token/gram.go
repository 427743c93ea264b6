package token

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

// MaxGramLength is the longest gram the corpus indexes.
const MaxGramLength = 3

// Gram is an ordered run of 1..3 same-variant tokens. The zero Gram is
// invalid; use NewGram.
type Gram struct {
	tokens []Token
	key    string
}

// NewGram validates and copies tokens into a Gram.
func NewGram(tokens ...Token) (Gram, error) {
	if len(tokens) < 1 || len(tokens) > MaxGramLength {
		return Gram{}, apperrors.Invalid("gram length %d outside 1..%d", len(tokens), MaxGramLength)
	}
	v := tokens[0].Variant
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Variant != v {
			return Gram{}, apperrors.Mismatch("gram mixes %s and %s tokens", v, t.Variant)
		}
		terms[i] = t.Term
	}
	return Gram{
		tokens: append([]Token(nil), tokens...),
		key:    strings.Join(terms, " "),
	}, nil
}

// Key is the space-joined terms, used as the dictionary key.
func (g Gram) Key() string { return g.key }

func (g Gram) Len() int { return len(g.tokens) }

// Variant of every token in the gram.
func (g Gram) Variant() Variant {
	if len(g.tokens) == 0 {
		return Surface
	}
	return g.tokens[0].Variant
}

// Tokens returns a copy of the gram's tokens.
func (g Gram) Tokens() []Token {
	return append([]Token(nil), g.tokens...)
}

// Raw is the space-joined raw forms.
func (g Gram) Raw() string {
	return g.join(func(t Token) string { return t.Raw })
}

// POS is the space-joined part-of-speech tags.
func (g Gram) POS() string {
	return g.join(func(t Token) string { return t.POS })
}

func (g Gram) join(field func(Token) string) string {
	parts := make([]string, len(g.tokens))
	for i, t := range g.tokens {
		parts[i] = field(t)
	}
	return strings.Join(parts, " ")
}

func (g Gram) String() string { return g.key }

// Equal compares grams token by token.
func (g Gram) Equal(o Gram) bool {
	if len(g.tokens) != len(o.tokens) {
		return false
	}
	for i := range g.tokens {
		if g.tokens[i] != o.tokens[i] {
			return false
		}
	}
	return true
}

func (g Gram) Tuples() []Tuple {
	out := make([]Tuple, len(g.tokens))
	for i, t := range g.tokens {
		out[i] = t.Tuple()
	}
	return out
}

func GramFromTuples(tuples []Tuple) (Gram, error) {
	tokens := make([]Token, len(tuples))
	for i, tp := range tuples {
		t, err := TokenFromTuple(tp)
		if err != nil {
			return Gram{}, err
		}
		tokens[i] = t
	}
	return NewGram(tokens...)
}

func (g Gram) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Tuples())
}

func (g *Gram) UnmarshalJSON(b []byte) error {
	var tuples []Tuple
	if err := json.Unmarshal(b, &tuples); err != nil {
		return fmt.Errorf("decoding gram: %w", err)
	}
	parsed, err := GramFromTuples(tuples)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Ngrams slides a window of n over tokens. A sequence shorter than n yields
// no grams.
func Ngrams(tokens []Token, n int) ([]Gram, error) {
	if n < 1 || n > MaxGramLength {
		return nil, apperrors.Invalid("gram length %d outside 1..%d", n, MaxGramLength)
	}
	if len(tokens) < n {
		return nil, nil
	}
	grams := make([]Gram, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		g, err := NewGram(tokens[i : i+n]...)
		if err != nil {
			return nil, fmt.Errorf("gram at offset %d: %w", i, err)
		}
		grams = append(grams, g)
	}
	return grams, nil
}

// Keys is Ngrams reduced to dictionary keys, for read paths that only need
// to count.
func Keys(tokens []Token, n int) ([]string, error) {
	grams, err := Ngrams(tokens, n)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(grams))
	for i, g := range grams {
		keys[i] = g.Key()
	}
	return keys, nil
}
