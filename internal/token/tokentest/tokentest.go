// Package tokentest provides a deterministic annotator for tests that must
// not depend on the statistical tagger.
package tokentest

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
)

// Annotator splits on whitespace and tags each word from the table,
// defaulting to NN.
type Annotator map[string]string

func (a Annotator) Tag(text string) ([]token.Tagged, error) {
	var out []token.Tagged
	for _, w := range strings.Fields(text) {
		pos, ok := a[w]
		if !ok {
			pos = "NN"
		}
		out = append(out, token.Tagged{Word: w, POS: pos})
	}
	return out, nil
}

// Tags covers the verbs used across the package tests.
var Tags = Annotator{
	"fried":   "VBN",
	"fry":     "VB",
	"fries":   "VBZ",
	"are":     "VBP",
	"is":      "VBZ",
	"was":     "VBD",
	"pickles": "NNS",
	"like":    "VBP",
	"crispy":  "JJ",
}

// Normalizer returns a Normalizer that tags with Tags and uses the default
// stemmer and lemmatizer.
func Normalizer() *token.Normalizer {
	return token.NewNormalizer(Tags, nil, nil)
}
