package token

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer derives Tokens from raw words or whole texts. It is safe for
// concurrent use when its collaborators are.
type Normalizer struct {
	annotator  Annotator
	stemmer    Stemmer
	lemmatizer Lemmatizer
}

// NewNormalizer wires the default English collaborators. Nil arguments fall
// back to ProseAnnotator, SnowballStemmer and RuleLemmatizer.
func NewNormalizer(a Annotator, s Stemmer, l Lemmatizer) *Normalizer {
	if a == nil {
		a = ProseAnnotator{}
	}
	if s == nil {
		s = SnowballStemmer{}
	}
	if l == nil {
		l = RuleLemmatizer{}
	}
	return &Normalizer{annotator: a, stemmer: s, lemmatizer: l}
}

// Token builds one token. An empty pos is filled in by tagging raw on its
// own.
func (n *Normalizer) Token(v Variant, raw, pos string) (Token, error) {
	if pos == "" {
		tagged, err := n.annotator.Tag(raw)
		if err != nil {
			return Token{}, err
		}
		if len(tagged) > 0 {
			pos = tagged[0].POS
		}
	}
	return n.build(v, raw, pos)
}

func (n *Normalizer) build(v Variant, raw, pos string) (Token, error) {
	t := Token{Raw: raw, POS: pos, Variant: v}
	switch v {
	case Surface:
		t.Term = raw
	case Stem:
		t.Term = n.stemmer.Stem(raw)
	case Lemma:
		t.Term = n.lemmatizer.Lemmatize(raw, ToWordNet(pos))
	default:
		return Token{}, fmt.Errorf("building token: %w", mismatchVariant(v))
	}
	return t, nil
}

// Normalize applies NFKC and lower-casing, the form every stored token is
// derived from.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// Tokenize annotates text once and renders the tagged words in every
// variant. The sequences are index-aligned: position i in each is the same
// word.
func (n *Normalizer) Tokenize(text string) (map[Variant][]Token, error) {
	tagged, err := n.annotator.Tag(Normalize(text))
	if err != nil {
		return nil, err
	}
	out := make(map[Variant][]Token, len(Variants))
	for _, v := range Variants {
		seq := make([]Token, 0, len(tagged))
		for _, tw := range tagged {
			if strings.TrimSpace(tw.Word) == "" {
				continue
			}
			t, err := n.build(v, tw.Word, tw.POS)
			if err != nil {
				return nil, err
			}
			seq = append(seq, t)
		}
		out[v] = seq
	}
	return out, nil
}

// Phrase tags a space-separated phrase once so that it can be rendered in
// every variant with Gram. When the tagger splits the phrase differently
// from whitespace, the words are kept and their tags left empty.
func (n *Normalizer) Phrase(phrase string) ([]Tagged, error) {
	words := strings.Fields(Normalize(phrase))
	tagged, err := n.annotator.Tag(strings.Join(words, " "))
	if err != nil {
		return nil, err
	}
	out := make([]Tagged, len(words))
	for i, w := range words {
		out[i] = Tagged{Word: w}
		if len(tagged) == len(words) {
			out[i].POS = tagged[i].POS
		}
	}
	return out, nil
}

// Gram renders tagged words as a gram of variant v.
func (n *Normalizer) Gram(v Variant, words []Tagged) (Gram, error) {
	tokens := make([]Token, len(words))
	for i, w := range words {
		t, err := n.build(v, w.Word, w.POS)
		if err != nil {
			return Gram{}, err
		}
		tokens[i] = t
	}
	return NewGram(tokens...)
}
