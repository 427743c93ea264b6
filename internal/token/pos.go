package token

import "strings"

// WordNetPOS is the coarse part of speech the lemmatizer understands.
type WordNetPOS byte

const (
	Noun      WordNetPOS = 'n'
	Verb      WordNetPOS = 'v'
	Adjective WordNetPOS = 'a'
	Adverb    WordNetPOS = 'r'
)

func (p WordNetPOS) String() string { return string(rune(p)) }

// ToWordNet maps a Penn Treebank tag to its WordNet class. Anything that is
// not a verb, adverb or adjective tag is treated as a noun.
func ToWordNet(tag string) WordNetPOS {
	tag = strings.ToUpper(tag)
	switch {
	case strings.HasPrefix(tag, "VB"):
		return Verb
	case strings.HasPrefix(tag, "RB"):
		return Adverb
	case strings.HasPrefix(tag, "JJ"):
		return Adjective
	default:
		return Noun
	}
}
