// Package token models the three normalized renderings of a word (surface,
// stem and lemma) and the fixed-length grams built from them.
package token

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

// Variant selects how a token's term is derived from its raw form.
type Variant int

const (
	Surface Variant = iota
	Stem
	Lemma
)

// Variants lists every variant in ingestion order.
var Variants = []Variant{Surface, Stem, Lemma}

func (v Variant) String() string {
	switch v {
	case Surface:
		return "surface"
	case Stem:
		return "stem"
	case Lemma:
		return "lemma"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Valid reports whether v is one of the defined variants.
func (v Variant) Valid() bool {
	return v >= Surface && v <= Lemma
}

// ParseVariant accepts the lower-case variant names. "string" is accepted as
// an alias for surface.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "surface", "string":
		return Surface, nil
	case "stem":
		return Stem, nil
	case "lemma":
		return Lemma, nil
	}
	return 0, apperrors.Mismatch("unknown token variant %q", s)
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, apperrors.Mismatch("unknown token variant %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Token is one word in one variant. Term is derived from Raw and POS and is
// never set independently.
type Token struct {
	Raw     string
	Term    string
	POS     string
	Variant Variant
}

// Tuple is the flat serialized form of a Token: term, raw, pos, variant.
type Tuple [4]string

// Tuple flattens t.
func (t Token) Tuple() Tuple {
	return Tuple{t.Term, t.Raw, t.POS, t.Variant.String()}
}

// TokenFromTuple rebuilds a Token without re-running the stemmer or
// lemmatizer.
func TokenFromTuple(tp Tuple) (Token, error) {
	v, err := ParseVariant(tp[3])
	if err != nil {
		return Token{}, err
	}
	return Token{Term: tp[0], Raw: tp[1], POS: tp[2], Variant: v}, nil
}

func (t Token) String() string {
	return t.Term
}

func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Tuple())
}

func (t *Token) UnmarshalJSON(b []byte) error {
	var tp Tuple
	if err := json.Unmarshal(b, &tp); err != nil {
		return fmt.Errorf("decoding token tuple: %w", err)
	}
	tok, err := TokenFromTuple(tp)
	if err != nil {
		return err
	}
	*t = tok
	return nil
}

func mismatchVariant(v Variant) error {
	return apperrors.Mismatch("unknown token variant %d", int(v))
}
