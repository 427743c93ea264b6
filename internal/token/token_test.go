package token

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

// splitAnnotator splits on whitespace and tags from a fixed table, so tests
// do not depend on the statistical tagger.
type splitAnnotator map[string]string

func (a splitAnnotator) Tag(text string) ([]Tagged, error) {
	var out []Tagged
	for _, w := range strings.Fields(text) {
		pos, ok := a[w]
		if !ok {
			pos = "NN"
		}
		out = append(out, Tagged{Word: w, POS: pos})
	}
	return out, nil
}

var testTags = splitAnnotator{"fried": "VBN", "are": "VBP", "pickles": "NNS"}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"surface": Surface, "String": Surface, "stem": Stem, " LEMMA ": Lemma} {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	_, err := ParseVariant("frayed")
	if !errors.Is(err, apperrors.ErrTypeMismatch) || !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("unknown variant err = %v", err)
	}
}

func TestNormalizerTokenVariants(t *testing.T) {
	n := NewNormalizer(testTags, nil, nil)
	tests := []struct {
		variant Variant
		want    Tuple
	}{
		{Surface, Tuple{"fried", "fried", "VBN", "surface"}},
		{Stem, Tuple{"fri", "fried", "VBN", "stem"}},
		{Lemma, Tuple{"fry", "fried", "VBN", "lemma"}},
	}
	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			tok, err := n.Token(tt.variant, "fried", "")
			if err != nil {
				t.Fatal(err)
			}
			if got := tok.Tuple(); got != tt.want {
				t.Errorf("tuple = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenIsDeterministic(t *testing.T) {
	n := NewNormalizer(testTags, nil, nil)
	for _, v := range Variants {
		a, _ := n.Token(v, "pickles", "NNS")
		b, _ := n.Token(v, "pickles", "NNS")
		if a != b {
			t.Errorf("%s: %v != %v", v, a, b)
		}
	}
}

func TestToWordNet(t *testing.T) {
	cases := map[string]WordNetPOS{
		"VBN": Verb, "VB": Verb, "RBR": Adverb, "JJS": Adjective,
		"NN": Noun, "DILLON": Noun, "": Noun,
	}
	for tag, want := range cases {
		if got := ToWordNet(tag); got != want {
			t.Errorf("ToWordNet(%q) = %s, want %s", tag, got, want)
		}
	}
}

func TestTokenJSONRoundTrip(t *testing.T) {
	tok := Token{Raw: "fried", Term: "fri", POS: "VBN", Variant: Stem}
	b, err := json.Marshal(tok)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `["fri","fried","VBN","stem"]` {
		t.Errorf("json = %s", b)
	}
	var back Token
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != tok {
		t.Errorf("round trip = %+v, want %+v", back, tok)
	}
}

func TestTokenizeAlignsVariants(t *testing.T) {
	n := NewNormalizer(testTags, nil, nil)
	seqs, err := n.Tokenize("Fried pickles are FRIED")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range Variants {
		if len(seqs[v]) != 4 {
			t.Fatalf("%s: %d tokens, want 4", v, len(seqs[v]))
		}
	}
	if seqs[Surface][0].Term != "fried" || seqs[Stem][3].Term != "fri" || seqs[Lemma][1].Term != "pickle" {
		t.Errorf("unexpected terms: %v %v %v", seqs[Surface], seqs[Stem], seqs[Lemma])
	}
	if seqs[Lemma][2].Term != "be" {
		t.Errorf("lemma of are = %q, want be", seqs[Lemma][2].Term)
	}
}

func TestNormalizeFoldsCompatibilityForms(t *testing.T) {
	if got := Normalize("Ｆｒｉｅｄ ﬁsh"); got != "fried fish" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestPhraseAndGram(t *testing.T) {
	n := NewNormalizer(testTags, nil, nil)
	words, err := n.Phrase("Fried  Pickles")
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 || words[0].POS != "VBN" || words[1].Word != "pickles" {
		t.Fatalf("words = %v", words)
	}
	want := map[Variant]string{Surface: "fried pickles", Stem: "fri pickl", Lemma: "fry pickle"}
	for v, key := range want {
		g, err := n.Gram(v, words)
		if err != nil {
			t.Fatal(err)
		}
		if g.Key() != key {
			t.Errorf("%s key = %q, want %q", v, g.Key(), key)
		}
	}
}
