package token

import (
	"fmt"

	"github.com/jdkato/prose/v2"
)

// Tagged is one word of annotated text with its Penn Treebank tag.
type Tagged struct {
	Word string
	POS  string
}

// Annotator tokenizes text and tags each word with its part of speech.
type Annotator interface {
	Tag(text string) ([]Tagged, error)
}

// ProseAnnotator uses prose's Penn Treebank tokenizer and averaged
// perceptron tagger. Segmentation and entity extraction are disabled.
type ProseAnnotator struct{}

func (ProseAnnotator) Tag(text string) ([]Tagged, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("annotating text: %w", err)
	}
	toks := doc.Tokens()
	out := make([]Tagged, len(toks))
	for i, t := range toks {
		out[i] = Tagged{Word: t.Text, POS: t.Tag}
	}
	return out, nil
}
