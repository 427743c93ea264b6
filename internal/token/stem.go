package token

import (
	"github.com/kljensen/snowball"
)

// Stemmer reduces a word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// SnowballStemmer is the English Porter2 stemmer.
type SnowballStemmer struct{}

func (SnowballStemmer) Stem(word string) string {
	// Stop words are stemmed too so that every token has a Stem term.
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stemmed
}
