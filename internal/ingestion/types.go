// Package ingestion defines the comment payloads that enter the corpus and
// the tokenized Comment event built from them.
package ingestion

import (
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
)

// RawComment is the source-normalized payload produced by the crawler or
// posted to the submit endpoint. It is also the Kafka message body.
type RawComment struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Author           string    `json:"author"`
	Date             time.Time `json:"date"`
	Raw              string    `json:"raw"`
	Cooked           string    `json:"cooked,omitempty"`
	ThreadID         string    `json:"thread_id,omitempty"`
	ParentID         string    `json:"parent_id,omitempty"`
	URL              string    `json:"url,omitempty"`
	Links            []string  `json:"links,omitempty"`
	Controversiality int       `json:"controversiality"`
	Score            int       `json:"score"`
	Polarity         *float64  `json:"polarity,omitempty"`
	Emotion          string    `json:"emotion,omitempty"`
}

// Comment is a RawComment with its cooked text and its token sequences in
// every variant. Token lists are derived once, at construction, and stored
// alongside the comment.
type Comment struct {
	RawComment
	Tokens map[token.Variant][]token.Token `json:"tokens"`
}

// NewComment cooks the markup (unless the payload already carries cooked
// text), normalizes the date to UTC and tokenizes the cooked text.
func NewComment(raw RawComment, n *token.Normalizer) (*Comment, error) {
	c := &Comment{RawComment: raw}
	if c.Cooked == "" {
		c.Cooked, c.Links = Cook(c.Raw)
	}
	c.Date = c.Date.UTC()
	tokens, err := n.Tokenize(c.Cooked)
	if err != nil {
		return nil, fmt.Errorf("tokenizing comment %s: %w", c.ID, err)
	}
	c.Tokens = tokens
	return c, nil
}

// Day is the UTC midnight the comment aggregates under.
func (c *Comment) Day() time.Time {
	return Day(c.Date)
}

// Grams slides a window of length n over the comment's tokens of variant v.
func (c *Comment) Grams(v token.Variant, n int) ([]token.Gram, error) {
	return token.Ngrams(c.Tokens[v], n)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InsertResult summarizes one pipeline run.
type InsertResult struct {
	CommentID string `json:"comment_id"`
	Source    string `json:"source"`
	Grams     int    `json:"grams"`
	Failed    int    `json:"failed"`
}

// SubmitResponse is returned to HTTP callers once a comment is queued.
type SubmitResponse struct {
	CommentID string `json:"comment_id"`
	Status    string `json:"status"`
}
