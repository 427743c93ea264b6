// Package validator checks RawComment payloads before they are queued. It
// returns per-field error details.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
)

const (
	maxIDLength     = 128
	maxAuthorLength = 128
	maxRawLength    = 65536
)

var sourcePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s: %s", field, e.Fields[field])
	}
	return strings.Join(parts, "; ")
}

// ValidateComment checks identity, source name, date and text bounds. The
// future-date check allows one minute of clock skew relative to now.
func ValidateComment(c *ingestion.RawComment, now time.Time) error {
	errs := make(map[string]string)

	if id := strings.TrimSpace(c.ID); id == "" {
		errs["id"] = "id is required"
	} else if len(id) > maxIDLength {
		errs["id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
	}
	if !sourcePattern.MatchString(c.Source) {
		errs["source"] = "source must be 1-64 letters, digits or underscores"
	}
	if strings.TrimSpace(c.Author) == "" {
		errs["author"] = "author is required"
	} else if len(c.Author) > maxAuthorLength {
		errs["author"] = fmt.Sprintf("author must be at most %d characters", maxAuthorLength)
	}
	if c.Date.IsZero() {
		errs["date"] = "date is required"
	} else if c.Date.After(now.Add(time.Minute)) {
		errs["date"] = "date must not be in the future"
	}
	if strings.TrimSpace(c.Raw) == "" {
		errs["raw"] = "raw text is required"
	} else if len(c.Raw) > maxRawLength {
		errs["raw"] = fmt.Sprintf("raw text must be at most %d bytes", maxRawLength)
	}
	if c.Polarity != nil && (*c.Polarity < -1 || *c.Polarity > 1) {
		errs["polarity"] = "polarity must be within [-1, 1]"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
