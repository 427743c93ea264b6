// Package timerange splits a query interval into the whole UTC days that
// daily aggregates can answer and the partial-day remainders that must be
// recomputed from raw comments.
package timerange

import (
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

const day = 24 * time.Hour

// Span is the half-open interval [Start, Stop).
type Span struct {
	Start time.Time
	Stop  time.Time
}

// Empty reports whether the span covers no instant.
func (s Span) Empty() bool {
	return !s.Start.Before(s.Stop)
}

// Split is a decomposition of one query interval. Days and the remainders
// are disjoint and together cover the interval exactly.
type Split struct {
	Days       Span
	Remainders []Span
}

// Validate rejects zero bounds and a stop before start.
func Validate(start, stop time.Time) error {
	if start.IsZero() || stop.IsZero() {
		return apperrors.Invalid("start and stop are required")
	}
	if stop.Before(start) {
		return apperrors.Invalid("stop %s is before start %s", stop.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return nil
}

// Midnight truncates t to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ceil returns the first UTC midnight at or after t.
func Ceil(t time.Time) time.Time {
	m := Midnight(t)
	if m.Equal(t) {
		return m
	}
	return m.Add(day)
}

// New splits [start, stop). The whole days are [Ceil(start), Midnight(stop));
// when start and stop fall inside the same day there are no whole days and
// the whole interval is a single remainder. Empty remainders are omitted.
func New(start, stop time.Time) Split {
	start, stop = start.UTC(), stop.UTC()
	startDay, stopDay := Ceil(start), Midnight(stop)

	if startDay.After(stopDay) {
		s := Split{}
		if start.Before(stop) {
			s.Remainders = []Span{{start, stop}}
		}
		return s
	}

	s := Split{Days: Span{startDay, stopDay}}
	if head := (Span{start, startDay}); !head.Empty() {
		s.Remainders = append(s.Remainders, head)
	}
	if tail := (Span{stopDay, stop}); !tail.Empty() {
		s.Remainders = append(s.Remainders, tail)
	}
	return s
}

// Touching returns the day span of every UTC day that overlaps
// [start, stop).
func Touching(start, stop time.Time) Span {
	return Span{Midnight(start), Ceil(stop)}
}
