package vector

import (
	"math"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

// Statistic selects how per-index tallies become vector components.
type Statistic int

const (
	Count Statistic = iota
	TF
	TFIDF
	Activation
)

func (s Statistic) String() string {
	switch s {
	case Count:
		return "count"
	case TF:
		return "tf"
	case TFIDF:
		return "tfidf"
	case Activation:
		return "activation"
	}
	return "statistic(?)"
}

func (s Statistic) Valid() bool {
	return s >= Count && s <= Activation
}

// ParseStatistic accepts count, tf, tfidf and activation, case-insensitively.
func ParseStatistic(name string) (Statistic, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "count":
		return Count, nil
	case "tf":
		return TF, nil
	case "tfidf", "tf-idf":
		return TFIDF, nil
	case "activation":
		return Activation, nil
	}
	return 0, apperrors.Mismatch("unknown statistic %q", name)
}

// tally holds raw per-index observations for one query.
type tally struct {
	counts   map[int64]float64
	docs     map[int64]map[string]struct{}
	users    map[int64]map[string]struct{}
	allDocs  map[string]struct{}
	allUsers map[string]struct{}
	maxIndex int64
}

func newTally() *tally {
	return &tally{
		counts:   make(map[int64]float64),
		docs:     make(map[int64]map[string]struct{}),
		users:    make(map[int64]map[string]struct{}),
		allDocs:  make(map[string]struct{}),
		allUsers: make(map[string]struct{}),
		maxIndex: -1,
	}
}

func (t *tally) add(idx int64, n float64, docs, users []string) {
	t.counts[idx] += n
	if idx > t.maxIndex {
		t.maxIndex = idx
	}
	t.docs[idx] = union(t.docs[idx], docs, t.allDocs)
	t.users[idx] = union(t.users[idx], users, t.allUsers)
}

func union(set map[string]struct{}, vals []string, all map[string]struct{}) map[string]struct{} {
	if set == nil {
		set = make(map[string]struct{}, len(vals))
	}
	for _, v := range vals {
		set[v] = struct{}{}
		all[v] = struct{}{}
	}
	return set
}

// vector renders the tally as a dense vector of the given length.
//
//	count:      c_i
//	tf:         c_i / Σc (all zero when Σc = 0)
//	tfidf:      tf_i · ln((|docs_i| + 1) / |∪docs|)
//	activation: |users_i| / |∪users|
func (t *tally) vector(s Statistic, length int64) []float64 {
	out := make([]float64, length)
	var sum float64
	for _, c := range t.counts {
		sum += c
	}
	nDocs, nUsers := float64(len(t.allDocs)), float64(len(t.allUsers))
	for idx, c := range t.counts {
		if idx < 0 || idx >= length {
			continue
		}
		switch s {
		case Count:
			out[idx] = c
		case TF:
			if sum > 0 {
				out[idx] = c / sum
			}
		case TFIDF:
			if sum > 0 && nDocs > 0 {
				out[idx] = (c / sum) * math.Log((float64(len(t.docs[idx]))+1)/nDocs)
			}
		case Activation:
			if nUsers > 0 {
				out[idx] = float64(len(t.users[idx])) / nUsers
			}
		}
	}
	return out
}
